package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Image is an ACF image field. Only the fields the wizard renders are kept.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// UnmarshalJSON accepts false and null, which ACF emits for an unset image.
func (i *Image) UnmarshalJSON(data []byte) error {
	if isACFEmpty(data) {
		*i = Image{}
		return nil
	}
	type image Image
	var raw image
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	*i = Image(raw)
	return nil
}

// Cost is a non-negative integer amount carried as a decimal string. Both
// JSON strings and numbers decode to their decimal text; parsing happens
// when the estimate is computed so bad content surfaces there.
type Cost string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cost) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case isACFEmpty(data):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode cost: %w", err)
		}
		*c = Cost(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode cost: %w", err)
		}
		*c = Cost(n.String())
	}
	return nil
}

// Option is one selectable answer to a Question.
type Option struct {
	ShortDescription string `json:"short_description"`
	LongDescription  string `json:"long_description"`
	MinimumCost      Cost   `json:"minimum_cost"`
	MaximumCost      Cost   `json:"maximum_cost"`
	Image            Image  `json:"featured_image"`
}

// Question is one step of a category's wizard.
type Question struct {
	Text     string   `json:"question_text"`
	HelpText string   `json:"question_help_text"`
	Options  []Option `json:"option"`
}

// UnmarshalJSON tolerates an empty ACF repeater (false) for the option list.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text     string          `json:"question_text"`
		HelpText string          `json:"question_help_text"`
		Options  json.RawMessage `json:"option"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode question: %w", err)
	}
	q.Text = raw.Text
	q.HelpText = raw.HelpText
	q.Options = nil
	return decodeACFList(raw.Options, &q.Options)
}

// FormFields is the copy shown around the contact form.
type FormFields struct {
	Headline    string `json:"form_headline"`
	Description string `json:"form_description"`
	FooterText  string `json:"form_footer_text"`
}

// UnmarshalJSON accepts false and null for an unset field group.
func (f *FormFields) UnmarshalJSON(data []byte) error {
	if isACFEmpty(data) {
		*f = FormFields{}
		return nil
	}
	type formFields FormFields
	var raw formFields
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode form fields: %w", err)
	}
	*f = FormFields(raw)
	return nil
}

// CalculatorData is one calculator post: a category's questions and form copy.
type CalculatorData struct {
	ID           int        `json:"calculator_id"`
	Title        string     `json:"calculator_title"`
	Slug         string     `json:"calculator_slug"`
	URL          string     `json:"calculator_url"`
	FormFields   FormFields `json:"form_fields"`
	Questions    []Question `json:"questions"`
	LastModified string     `json:"last_modified"`
	PostType     string     `json:"post_type"`
}

// UnmarshalJSON tolerates an empty ACF repeater (false) for the question list.
func (d *CalculatorData) UnmarshalJSON(data []byte) error {
	type calculatorData CalculatorData
	var raw struct {
		calculatorData
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode calculator: %w", err)
	}
	*d = CalculatorData(raw.calculatorData)
	d.Questions = nil
	return decodeACFList(raw.Questions, &d.Questions)
}

// Option returns the option at (questionIndex, optionIndex), if both are in range.
func (d *CalculatorData) Option(questionIndex, optionIndex int) (Option, bool) {
	if d == nil || questionIndex < 0 || questionIndex >= len(d.Questions) {
		return Option{}, false
	}
	opts := d.Questions[questionIndex].Options
	if optionIndex < 0 || optionIndex >= len(opts) {
		return Option{}, false
	}
	return opts[optionIndex], true
}

// Category is a top-level renovation category listed on the home screen.
type Category struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Image         string `json:"image"`
	DetailContent string `json:"detailContent"`
}

// HomeData is the home screen: headline, help text and the category list.
type HomeData struct {
	Headline   string     `json:"headline"`
	HelpText   string     `json:"helpText"`
	Categories []Category `json:"categories"`
}

// Category returns the category with the given id.
func (h *HomeData) Category(id string) (Category, bool) {
	if h == nil {
		return Category{}, false
	}
	for _, c := range h.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Results is the copy shown on the results screen. Fallback reports that
// generic copy replaced content that could not be fetched.
type Results struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
	FooterText  string `json:"footerText"`
	Disclaimer  string `json:"disclaimer"`
	Fallback    bool   `json:"fallback"`
}

// EmailTemplate is the confirmation email template.
type EmailTemplate struct {
	Subject  string `json:"subject"`
	HTMLBody string `json:"htmlBody"`
	TextBody string `json:"textBody"`
	Fallback bool   `json:"fallback"`
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
)

// CategoryID derives a URL-safe id from a category title:
// "Home Renovations" -> "home-renovations".
func CategoryID(title string) string {
	id := whitespaceRun.ReplaceAllString(strings.ToLower(title), "-")
	return nonSlugChars.ReplaceAllString(id, "")
}

func isACFEmpty(data []byte) bool {
	s := string(bytes.TrimSpace(data))
	return s == "" || s == "null" || s == "false"
}

func decodeACFList[T any](data json.RawMessage, out *[]T) error {
	if isACFEmpty(data) || string(bytes.TrimSpace(data)) == `""` {
		return nil
	}
	return json.Unmarshal(data, out)
}
