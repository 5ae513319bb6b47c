package validator

import "testing"

type createPostPayload struct {
	Title   string `json:"title" validate:"required,max=120"`
	Content string `json:"content" validate:"required,max=2000"`
	Image   string `json:"image" validate:"omitempty,url"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(createPostPayload{
		Title:   "morning run",
		Content: "10k along the river",
	})
	if err != nil {
		t.Fatalf("expected payload to validate, got %v", err)
	}
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(createPostPayload{Image: "not-a-url"})
	ve, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	fields := ve.Fields()
	if len(fields) != 3 {
		t.Fatalf("expected three failing fields, got %v", fields)
	}

	for _, field := range fields {
		switch field {
		case "title", "content", "image":
		default:
			t.Fatalf("expected json tag names, got %q", field)
		}
	}
}
