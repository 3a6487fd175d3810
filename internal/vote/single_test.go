package vote

import "testing"

func TestSingleChoice_Payload_NoSelection(t *testing.T) {
	s := NewSingleChoice(testItems(3))

	_, err := s.Payload()
	if err != ErrNoSelection {
		t.Errorf("expected ErrNoSelection, got %v", err)
	}
}

func TestSingleChoice_SelectAndPayload(t *testing.T) {
	s := NewSingleChoice(testItems(3))

	if err := s.Select(2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	payload, err := s.Payload()
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if len(payload) != 1 || payload[0] != 2 {
		t.Errorf("expected [2], got %v", payload)
	}
}

func TestSingleChoice_Select_Replaces(t *testing.T) {
	s := NewSingleChoice(testItems(3))

	if err := s.Select(1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := s.Select(3); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	selected, ok := s.Selected()
	if !ok || selected != 3 {
		t.Errorf("expected selection 3, got %d (ok=%v)", selected, ok)
	}
}

func TestSingleChoice_Select_UnknownItem(t *testing.T) {
	s := NewSingleChoice(testItems(3))

	if err := s.Select(99); err == nil {
		t.Fatal("expected error for item outside the category")
	}
	if _, ok := s.Selected(); ok {
		t.Error("failed select must not record a selection")
	}
}

func TestSingleChoice_Clear(t *testing.T) {
	s := NewSingleChoice(testItems(3))

	if err := s.Select(1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	s.Clear()

	if _, ok := s.Selected(); ok {
		t.Error("expected no selection after Clear")
	}
	if _, err := s.Payload(); err != ErrNoSelection {
		t.Errorf("expected ErrNoSelection after Clear, got %v", err)
	}
}
