package id3

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// TOCBody renders a CTOC frame body for testing.
func TOCBody(elementID string, topLevel, ordered bool, childIDs []string, title string) []byte {
	return tocFrame{
		ElementID: elementID,
		TopLevel:  topLevel,
		Ordered:   ordered,
		ChildIDs:  childIDs,
		Title:     title,
	}.body()
}

// Synchsafe exports synchsafe for testing.
var Synchsafe = synchsafe
