package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ScriptBlock locates the content of a <script> element inside a composite
// (single-file component) source.
type ScriptBlock struct {
	Start    int // first byte of the element's content
	End      int // first byte of the closing tag
	Language string
	Setup    bool
}

// extractScriptBlocks scans the top level of an HTML document tree for
// script elements. Elements without a closing tag are ignored.
func extractScriptBlocks(root *sitter.Node, source []byte) []ScriptBlock {
	var blocks []ScriptBlock
	if root == nil {
		return blocks
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node == nil || node.Kind() != "script_element" {
			continue
		}
		var startTag, endTag *sitter.Node
		for j := uint(0); j < node.NamedChildCount(); j++ {
			child := node.NamedChild(j)
			switch child.Kind() {
			case "start_tag":
				startTag = child
			case "end_tag":
				endTag = child
			}
		}
		if startTag == nil || endTag == nil {
			continue
		}

		block := ScriptBlock{
			Start:    int(startTag.EndByte()),
			End:      int(endTag.StartByte()),
			Language: LangJavaScript,
		}
		attrs := scriptAttributes(startTag, source)
		if lang, ok := attrs["lang"]; ok {
			block.Language = LanguageForScriptLang(lang)
		}
		if _, ok := attrs["setup"]; ok {
			block.Setup = true
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func scriptAttributes(startTag *sitter.Node, source []byte) map[string]string {
	attrs := make(map[string]string)
	for i := uint(0); i < startTag.NamedChildCount(); i++ {
		attr := startTag.NamedChild(i)
		if attr.Kind() != "attribute" {
			continue
		}
		var name, value string
		for j := uint(0); j < attr.NamedChildCount(); j++ {
			part := attr.NamedChild(j)
			text := string(source[part.StartByte():part.EndByte()])
			switch part.Kind() {
			case "attribute_name":
				name = strings.ToLower(text)
			case "attribute_value":
				value = text
			case "quoted_attribute_value":
				value = strings.Trim(text, `"'`)
			}
		}
		if name != "" {
			attrs[name] = value
		}
	}
	return attrs
}

// PrimaryScript picks the block an import injection targets: the setup
// block when present, otherwise the first script.
func PrimaryScript(blocks []ScriptBlock) (ScriptBlock, bool) {
	for _, block := range blocks {
		if block.Setup {
			return block, true
		}
	}
	if len(blocks) == 0 {
		return ScriptBlock{}, false
	}
	return blocks[0], true
}
