package formatter

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/dgallion1/nbdistill/internal/htmlmd"
	"github.com/dgallion1/nbdistill/internal/notebook"
)

// Notes substituted for content that cannot be carried into text output.
const (
	ImageNote  = "Note: This cell contained an image that couldn't be included in text format."
	WidgetNote = "Note: This cell contained an interactive widget that couldn't be included in text format."
)

// Output renders one cell output as markdown. Rich HTML is converted via
// htmlmd; images are replaced with a note; unknown output types are labeled
// rather than dropped.
func Output(out notebook.Output, maxLen int) string {
	switch out.Type {
	case "stream":
		text := strings.TrimSpace(truncate(out.Text.String(), maxLen))
		if text == "" {
			return ""
		}
		return "**Output:**\n```\n" + text + "\n```\n\n"

	case "execute_result", "display_data":
		return dataOutput(out.Data, maxLen)

	case "error":
		ename := out.EName
		if ename == "" {
			ename = "Error"
		}
		msg := truncate(fmt.Sprintf("%s: %s", ename, out.EValue), maxLen)
		return "**Error:**\n```\n" + strings.TrimSpace(msg) + "\n```\n\n"
	}

	return fmt.Sprintf("**Unhandled Output Type:** %s\n\n", out.Type)
}

// dataOutput picks the richest representable mime type from a data bundle,
// in the original tool's preference order.
func dataOutput(data map[string]any, maxLen int) string {
	if data == nil {
		return ""
	}

	if v, ok := data[notebook.MimeTextPlain]; ok {
		text := truncate(notebook.DataString(v), maxLen)
		return "**Result:**\n```\n" + strings.TrimSpace(text) + "\n```\n\n"
	}

	if v, ok := data[notebook.MimeTextHTML]; ok {
		markdown, _ := htmlmd.Convert(notebook.DataString(v))
		markdown = truncate(markdown, maxLen)
		return "**HTML Output:**\n" + markdown + "\n\n"
	}

	if v, ok := data[notebook.MimeTextLatex]; ok {
		latex := truncate(notebook.DataString(v), maxLen)
		return "**LaTeX:**\n$$\n" + strings.TrimSpace(latex) + "\n$$\n\n"
	}

	if v, ok := data[notebook.MimeTextMarkdown]; ok {
		markdown := truncate(notebook.DataString(v), maxLen)
		return "**Markdown Output:**\n" + markdown + "\n\n"
	}

	for _, mime := range []string{notebook.MimeImagePNG, notebook.MimeImageJPEG, notebook.MimeImageSVG} {
		if _, ok := data[mime]; ok {
			return "**Image Output:** *" + ImageNote + "*\n\n"
		}
	}

	if v, ok := data[notebook.MimeAppJSON]; ok {
		return jsonOutput(v, maxLen)
	}

	return ""
}

func jsonOutput(v any, maxLen int) string {
	// The bundle value may be a pre-serialized string or a decoded object.
	if s, ok := v.(string); ok {
		var decoded any
		if err := sonic.Unmarshal([]byte(s), &decoded); err != nil {
			return "**JSON Result:** [Error formatting JSON]\n\n"
		}
		v = decoded
	}
	pretty, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return "**JSON Result:** [Error formatting JSON]\n\n"
	}
	return "**JSON Result:**\n```json\n" + truncate(string(pretty), maxLen) + "\n```\n\n"
}
