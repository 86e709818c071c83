package commands

import (
	"errors"
	"testing"
)

func TestParseTaskRef_Number(t *testing.T) {
	ref, err := ParseTaskRef("12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Num != 12 || ref.ID != "" {
		t.Errorf("expected number 12, got %+v", ref)
	}
	if ref.String() != "12" {
		t.Errorf("expected String 12, got %q", ref.String())
	}
}

func TestParseTaskRef_ID(t *testing.T) {
	ref, err := ParseTaskRef("id:3f9c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "3f9c" || ref.Num != 0 {
		t.Errorf("expected id 3f9c, got %+v", ref)
	}
	if ref.String() != "id:3f9c" {
		t.Errorf("expected String id:3f9c, got %q", ref.String())
	}
}

func TestParseTaskRef_Empty_Error(t *testing.T) {
	_, err := ParseTaskRef(" ")
	if !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

func TestParseTaskRef_Zero_Error(t *testing.T) {
	_, err := ParseTaskRef("0")
	if err == nil || err.Error() != "task number out of range: 0" {
		t.Errorf("expected out of range error, got %v", err)
	}
}

func TestParseTaskRef_Invalid_Error(t *testing.T) {
	for _, in := range []string{"a1", "id:", "-3", "1.5", "١٢"} {
		_, err := ParseTaskRef(in)
		if err == nil || err.Error() != "invalid task reference: "+in {
			t.Errorf("ParseTaskRef(%q): expected invalid reference error, got %v", in, err)
		}
	}
}

func TestParseTaskRefs(t *testing.T) {
	refs, err := ParseTaskRefs([]string{"1", "id:x", "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 3 || refs[0].Num != 1 || refs[1].ID != "x" || refs[2].Num != 3 {
		t.Errorf("unexpected refs %+v", refs)
	}

	if _, err := ParseTaskRefs(nil); !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
	if _, err := ParseTaskRefs([]string{"1", "x"}); err == nil {
		t.Error("expected error for invalid token")
	}
}
