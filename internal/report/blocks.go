// Package report turns collected agent outputs into a persisted report:
// it extracts typed render blocks from free text and renders a
// self-contained HTML document.
package report

import (
	"encoding/json"
	"strings"
)

// RenderBlock is a typed visualization descriptor an agent embedded in
// its output as fenced JSON. The dashboard renders these; the static
// HTML artifact only enumerates them.
type RenderBlock struct {
	Type   string         `json:"type"`
	Title  string         `json:"title"`
	Data   any            `json:"data"`
	Config map[string]any `json:"config,omitempty"`
}

var renderBlockTypes = map[string]bool{
	"bar_chart":   true,
	"line_chart":  true,
	"scatter":     true,
	"force_graph": true,
	"sankey":      true,
	"heatmap":     true,
	"treemap":     true,
	"table":       true,
	"summary":     true,
}

// ExtractBlocks scans text for fenced code blocks, parses each fence as
// JSON and keeps any object (or array element) that is a valid render
// block. Everything else is ignored: agents routinely emit JSON for
// unrelated purposes.
func ExtractBlocks(text string) []RenderBlock {
	blocks := make([]RenderBlock, 0)
	for _, fence := range fencedBlocks(text) {
		var single map[string]any
		if err := json.Unmarshal([]byte(fence), &single); err == nil {
			if block, ok := toRenderBlock(single); ok {
				blocks = append(blocks, block)
			}
			continue
		}
		var many []map[string]any
		if err := json.Unmarshal([]byte(fence), &many); err == nil {
			for _, candidate := range many {
				if block, ok := toRenderBlock(candidate); ok {
					blocks = append(blocks, block)
				}
			}
		}
	}
	return blocks
}

func toRenderBlock(candidate map[string]any) (RenderBlock, bool) {
	blockType, _ := candidate["type"].(string)
	if !renderBlockTypes[blockType] {
		return RenderBlock{}, false
	}
	title, ok := candidate["title"].(string)
	if !ok {
		return RenderBlock{}, false
	}
	data, ok := candidate["data"]
	if !ok {
		return RenderBlock{}, false
	}
	block := RenderBlock{Type: blockType, Title: title, Data: data}
	if config, ok := candidate["config"].(map[string]any); ok {
		block.Config = config
	}
	return block, true
}

// fencedBlocks returns the contents of every ``` fence in the text. The
// language tag after the opening fence is ignored.
func fencedBlocks(text string) []string {
	contents := make([]string, 0)
	lines := strings.Split(text, "\n")
	var current []string
	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inFence {
				contents = append(contents, strings.Join(current, "\n"))
				current = nil
			}
			inFence = !inFence
			continue
		}
		if inFence {
			current = append(current, line)
		}
	}
	return contents
}
