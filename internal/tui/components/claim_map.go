package components

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/png"
	"io"

	"github.com/BourgeoisBear/rasterm"
	"github.com/dominikbraun/graph"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/mattn/go-sixel"
	xdraw "golang.org/x/image/draw"

	"claimpoints/internal/log"
)

// ClaimNode is one ClaimPoint to place on the overview map.
type ClaimNode struct {
	X     int
	Z     int
	Label string
}

// maxMapWidth bounds the emitted image so it fits a terminal cell grid.
const maxMapWidth = 800

// RenderClaimMap draws the ClaimPoints as a graph image and writes it to w
// using whichever inline-image protocol the terminal supports (kitty, iTerm2,
// or sixel). Claims are linked by a minimum spanning tree over their
// block distance, which reads as a rough "trail" between holdings.
func RenderClaimMap(w io.Writer, claims []ClaimNode) error {
	if len(claims) == 0 {
		fmt.Fprintln(w, "No ClaimPoints to map.")
		return nil
	}

	img, err := generateClaimImage(claims)
	if err != nil {
		return err
	}

	return writeInlineImage(w, img)
}

// generateClaimImage lays the claim graph out with graphviz and returns the
// decoded, scaled image.
func generateClaimImage(claims []ClaimNode) (image.Image, error) {
	edges, err := spanningEdges(claims)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	gvGraph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz graph: %w", err)
	}
	defer gvGraph.Close()

	gvGraph.SetLayout("neato") // Force-directed layout engine
	gvGraph.SetBackgroundColor("black")
	gvGraph.SetOverlap(false)
	gvGraph.SetSplines("true")
	gvGraph.Set("len", "2.0")

	gvGraph.Attr(int(cgraph.EDGE), "color", "white")
	gvGraph.Attr(int(cgraph.NODE), "style", "filled,rounded")
	gvGraph.Attr(int(cgraph.NODE), "color", "white")

	gvNodes := make([]*graphviz.Node, len(claims))
	for i, c := range claims {
		node, err := gvGraph.CreateNodeByName(fmt.Sprintf("c%d", i))
		if err != nil {
			return nil, fmt.Errorf("failed to create map node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\\n(%d, %d)", c.Label, c.X, c.Z))
		node.SetFillColor("gold")
		node.SetShape("box")
		node.SetFontColor("black")
		gvNodes[i] = node
	}

	for _, e := range edges {
		if _, err := gvGraph.CreateEdgeByName("", gvNodes[e.Source], gvNodes[e.Target]); err != nil {
			return nil, fmt.Errorf("failed to create map edge: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, gvGraph, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render claim map: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("graphviz render produced no PNG output")
	}

	img, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered map: %w", err)
	}

	return scaleToWidth(img, maxMapWidth), nil
}

// spanningEdges builds a complete weighted graph over the claims and keeps
// the minimum spanning tree, so the map links each claim to its nearest
// neighborhood without edge clutter.
func spanningEdges(claims []ClaimNode) ([]graph.Edge[int], error) {
	if len(claims) == 1 {
		return nil, nil
	}

	g := graph.New(graph.IntHash, graph.Weighted())
	for i := range claims {
		if err := g.AddVertex(i); err != nil {
			return nil, fmt.Errorf("failed to add map vertex: %w", err)
		}
	}
	for i := 0; i < len(claims); i++ {
		for j := i + 1; j < len(claims); j++ {
			dist := abs(claims[i].X-claims[j].X) + abs(claims[i].Z-claims[j].Z)
			if err := g.AddEdge(i, j, graph.EdgeWeight(dist)); err != nil {
				return nil, fmt.Errorf("failed to add map edge: %w", err)
			}
		}
	}

	mst, err := graph.MinimumSpanningTree(g)
	if err != nil {
		return nil, fmt.Errorf("failed to compute spanning tree: %w", err)
	}
	return mst.Edges()
}

// scaleToWidth downscales img to at most maxWidth, preserving aspect.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return img
	}

	scale := float64(maxWidth) / float64(bounds.Dx())
	newWidth := maxWidth
	newHeight := int(float64(bounds.Dy()) * scale)

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Over, nil)
	return scaled
}

// writeInlineImage emits the image with the best protocol the terminal
// supports, falling back to sixel.
func writeInlineImage(w io.Writer, img image.Image) error {
	switch {
	case rasterm.IsKittyCapable():
		return rasterm.KittyWriteImage(w, img, rasterm.KittyImgOpts{})
	case rasterm.IsItermCapable():
		return rasterm.ItermWriteImage(w, img)
	default:
		log.Debug("Terminal not kitty/iterm capable, using sixel")
		encoder := sixel.NewEncoder(w)
		encoder.Dither = false
		return encoder.Encode(toPaletted(img))
	}
}

func toPaletted(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}
	bounds := img.Bounds()
	p := image.NewPaletted(bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(p, bounds, img, bounds.Min)
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
