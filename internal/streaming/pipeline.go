package streaming

import (
	"bytes"
	"regexp"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"claimpoints/internal/log"
)

// LineSink consumes assembled chat lines one at a time, in arrival order.
type LineSink interface {
	FeedLine(line string)
}

// ChatWriter receives every chat line for display.
type ChatWriter interface {
	AppendChatLine(line string)
}

// formatCodes matches legacy chat formatting codes (a section sign followed
// by one code character). They are display markup, not content, and must be
// stripped before pattern matching.
var formatCodes = regexp.MustCompile(`§.`)

// Pipeline provides streaming from the chat bridge to the scanner and the
// chat view: raw chunks in, decoded whole lines out. Chunks may split lines
// arbitrarily, so a partial tail is carried between chunks.
type Pipeline struct {
	// Input
	rawDataChan chan []byte

	// Processing
	decoder *encoding.Decoder // nil = UTF-8 passthrough
	sink    LineSink
	chat    ChatWriter
	partial []byte

	// State
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Metrics
	bytesProcessed uint64
	linesProcessed uint64
}

// DecoderFor maps a config encoding name to a charmap decoder. Unknown
// names (including "utf8") mean no transcoding.
func DecoderFor(name string) *encoding.Decoder {
	switch name {
	case "latin1":
		return charmap.ISO8859_1.NewDecoder()
	case "cp437":
		return charmap.CodePage437.NewDecoder()
	default:
		return nil
	}
}

// NewPipeline creates a streaming pipeline feeding the given sink and chat
// view.
func NewPipeline(encodingName string, sink LineSink, chat ChatWriter) *Pipeline {
	return &Pipeline{
		rawDataChan: make(chan []byte, 100), // Buffered for burst handling
		decoder:     DecoderFor(encodingName),
		sink:        sink,
		chat:        chat,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the streaming pipeline
func (p *Pipeline) Start() {
	p.running = true
	p.wg.Add(1)
	go p.processor()
	log.Debug("Pipeline started")
}

// Stop gracefully shuts down the pipeline
func (p *Pipeline) Stop() {
	if !p.running {
		return
	}
	p.running = false
	close(p.stopChan)
	p.wg.Wait()
	log.Debug("Pipeline stopped", "bytes", p.bytesProcessed, "lines", p.linesProcessed)
}

// Write feeds raw data into the pipeline
func (p *Pipeline) Write(data []byte) {
	if !p.running {
		return
	}

	// Make a copy since the caller might reuse the buffer
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	select {
	case p.rawDataChan <- dataCopy:
	default:
		log.Warn("Dropping chat data, pipeline channel full", "bytes", len(data))
	}
}

// processor assembles and dispatches lines as chunks arrive
func (p *Pipeline) processor() {
	defer p.wg.Done()

	for {
		select {
		case rawData := <-p.rawDataChan:
			p.bytesProcessed += uint64(len(rawData))

			decoded := rawData
			if p.decoder != nil {
				if d, err := p.decoder.Bytes(rawData); err == nil {
					decoded = d
				} else {
					log.Warn("Decode error, using raw data", "error", err)
				}
			}

			p.partial = append(p.partial, decoded...)
			p.dispatchLines()

		case <-p.stopChan:
			return
		}
	}
}

// dispatchLines peels complete lines off the partial buffer and hands them
// to the chat view and the scanner.
func (p *Pipeline) dispatchLines() {
	for {
		idx := bytes.IndexByte(p.partial, '\n')
		if idx == -1 {
			return
		}

		line := string(bytes.TrimRight(p.partial[:idx], "\r"))
		p.partial = p.partial[idx+1:]

		clean := formatCodes.ReplaceAllString(line, "")
		if clean == "" {
			continue
		}

		p.linesProcessed++
		log.LogChatLine("<<", clean)

		if p.chat != nil {
			p.chat.AppendChatLine(clean)
		}
		if p.sink != nil {
			p.sink.FeedLine(clean)
		}
	}
}

// GetMetrics returns pipeline throughput counters
func (p *Pipeline) GetMetrics() (bytesProcessed, linesProcessed uint64) {
	return p.bytesProcessed, p.linesProcessed
}
