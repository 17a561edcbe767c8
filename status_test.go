package execkit

import "testing"

func TestExitStatusSuccess(t *testing.T) {
	st := exitedStatus(0, 0)
	if !st.Success() {
		t.Error("Success() = false, want true for exit code 0")
	}
	code, ok := st.Code()
	if !ok || code != 0 {
		t.Errorf("Code() = (%d, %v), want (0, true)", code, ok)
	}
}

func TestExitStatusNonZeroCodeIsNotSuccess(t *testing.T) {
	st := exitedStatus(3, 0)
	if st.Success() {
		t.Error("Success() = true, want false for exit code 3")
	}
	code, ok := st.Code()
	if !ok || code != 3 {
		t.Errorf("Code() = (%d, %v), want (3, true)", code, ok)
	}
}

func TestExitStatusOtherHasNoCode(t *testing.T) {
	st := otherStatus(0)
	if _, ok := st.Code(); ok {
		t.Error("Code() ok = true, want false for a non-exited status")
	}
	if st.Success() {
		t.Error("Success() = true, want false for a non-exited status")
	}
}

func TestExitStatusString(t *testing.T) {
	st := exitedStatus(0, 0)
	if st.String() != "exit status 0" {
		t.Errorf("String() = %q, want %q", st.String(), "exit status 0")
	}
}
