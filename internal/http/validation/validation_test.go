package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type prefsReq struct {
	Level string `json:"cefrLevel" binding:"required,cefr"`
	Mode  string `json:"correctionMode" binding:"omitempty,correction_mode"`
}

func TestRegisterBinding(t *testing.T) {
	if err := RegisterBinding(); err != nil {
		t.Fatalf("RegisterBinding: %v", err)
	}
	if err := RegisterBinding(); err != nil {
		t.Fatalf("second RegisterBinding: %v", err)
	}
	if err := binding.Validator.ValidateStruct(prefsReq{Level: "B2", Mode: "deferred"}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
	if err := binding.Validator.ValidateStruct(prefsReq{Level: "D1"}); err == nil {
		t.Fatal("invalid level accepted")
	}
}
