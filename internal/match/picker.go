package match

import "math/rand/v2"

// Picker chooses one response out of several.
type Picker interface {
	PickOne(responses []string) string
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(responses []string) string

// PickOne calls f.
func (f PickerFunc) PickOne(responses []string) string { return f(responses) }

// RandomPicker picks uniformly at random.
type RandomPicker struct{}

// PickOne returns a random element, or "" for an empty list.
func (RandomPicker) PickOne(responses []string) string {
	if len(responses) == 0 {
		return ""
	}
	return responses[rand.IntN(len(responses))]
}

// FirstPicker always picks the first element.
type FirstPicker struct{}

// PickOne returns the first element, or "" for an empty list.
func (FirstPicker) PickOne(responses []string) string {
	if len(responses) == 0 {
		return ""
	}
	return responses[0]
}
