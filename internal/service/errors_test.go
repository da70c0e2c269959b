package service

import (
	"errors"
	"fmt"
	"testing"
)

// TestKindOf проверяет определение вида ошибки через цепочку обёрток.
func TestKindOf(t *testing.T) {
	base := newFault(FaultNotFound, "File not found", nil)
	wrapped := fmt.Errorf("delivery: %w", base)

	if KindOf(wrapped) != FaultNotFound {
		t.Errorf("KindOf = %q, ожидался %q", KindOf(wrapped), FaultNotFound)
	}
	if MessageOf(wrapped) != "File not found" {
		t.Errorf("MessageOf = %q", MessageOf(wrapped))
	}

	plain := errors.New("boom")
	if KindOf(plain) != FaultInternal {
		t.Errorf("KindOf(plain) = %q, ожидался %q", KindOf(plain), FaultInternal)
	}
}

// TestFault_Unwrap проверяет доступ к исходной ошибке.
func TestFault_Unwrap(t *testing.T) {
	cause := errors.New("statfs failed")
	f := newFault(FaultStorage, "Не удалось определить свободное место", cause)

	if !errors.Is(f, cause) {
		t.Error("errors.Is не находит исходную ошибку")
	}
	if f.Error() == "" {
		t.Error("пустой текст ошибки")
	}
}
