package observe

import (
	"strings"

	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/label"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/scan"
	"golang.org/x/net/html"
)

// Answer reads the answer a control currently holds from the live document:
// the selected option, the checked member labels, the selected button or the
// typed text. lastClicked is the fallback for button groups without visible
// selection state and may be nil.
func Answer(doc dom.Document, labels *label.Resolver, c scan.Control, lastClicked *html.Node) string {
	if len(c.Elements) == 0 {
		return ""
	}
	switch c.Kind {
	case model.KindText, model.KindTextarea:
		return strings.TrimSpace(doc.Value(c.Elements[0]))
	case model.KindSelect:
		opts := dom.Options(c.Elements[0])
		i := doc.SelectedIndex(c.Elements[0])
		if i < 0 || i >= len(opts) {
			return ""
		}
		return scan.SelectedAnswer(opts[i])
	case model.KindRadioGroup, model.KindCheckbox:
		var checked []string
		for _, m := range c.Elements {
			if doc.Checked(m) {
				if l := labels.ChoiceLabel(m); l != "" {
					checked = append(checked, l)
				}
			}
		}
		return strings.Join(checked, ", ")
	case model.KindButtonGroup:
		if b := scan.SelectedButton(c.Container, c.Elements, lastClicked); b != nil {
			return dom.Text(b)
		}
	}
	return ""
}
