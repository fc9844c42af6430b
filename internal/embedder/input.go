package embedder

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// InputType is the modality a model accepts.
type InputType int32

const (
	InputText  InputType = 0
	InputImage InputType = 1
)

// String returns the lowercase modality name.
func (t InputType) String() string {
	switch t {
	case InputText:
		return "text"
	case InputImage:
		return "image"
	default:
		return fmt.Sprintf("InputType(%d)", int32(t))
	}
}

// ParseInputType parses a modality name, case-insensitively.
func ParseInputType(s string) (InputType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return InputText, nil
	case "image":
		return InputImage, nil
	default:
		return 0, fmt.Errorf("%w: unknown input type %q", ErrUnsupportedInput, s)
	}
}

// Input is the raw payload of an embed call. The set of variants is closed;
// new modalities are added as new variants.
type Input interface {
	// Type reports the modality of the payload.
	Type() InputType
	// Len returns the number of items.
	Len() int

	sealed()
}

// Texts is a batch of UTF-8 text items. Items are borrowed for the duration
// of the call.
type Texts []string

func (Texts) Type() InputType { return InputText }

func (t Texts) Len() int { return len(t) }

func (Texts) sealed() {}

// TextsOf returns the text items of in, or an error if in is not a text batch,
// is empty, or holds an item that is not valid UTF-8.
func TextsOf(in Input) ([]string, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: input is nil", ErrEmptyInput)
	}
	texts, ok := in.(Texts)
	if !ok {
		return nil, fmt.Errorf("%w: %s input", ErrUnsupportedInput, in.Type())
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	for i, s := range texts {
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("%w: item %d is not valid UTF-8", ErrInvalidInput, i)
		}
	}
	return texts, nil
}
