package shape

import "testing"

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestCoerce_String(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "already a string", input: "hello world", want: "hello world"},
		{name: "empty string", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce[string](tt.input)
			if err != nil {
				t.Fatalf("Coerce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Coerce() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoerce_Bool(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    bool
		wantErr bool
	}{
		{name: "true", input: "true", want: true},
		{name: "false", input: "false", want: false},
		{name: "already bool", input: true, want: true},
		{name: "invalid", input: "not-a-bool", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce[bool](tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Coerce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerce_StructFromValidJSON(t *testing.T) {
	got, err := Coerce[person](`{"name":"John","age":30}`)
	if err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if got.Name != "John" || got.Age != 30 {
		t.Errorf("Coerce() = %+v, want {John 30}", got)
	}
}

func TestCoerce_StructFromMalformedJSON(t *testing.T) {
	// Single quotes and unquoted keys: jsonrepair's target case.
	got, err := Coerce[person](`{name: 'John', age: 30}`)
	if err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if got.Name != "John" || got.Age != 30 {
		t.Errorf("Coerce() = %+v, want {John 30}", got)
	}
}

func TestCoerce_SchemaEnvelopeUnwrapped(t *testing.T) {
	got, err := Coerce[string](`{"type":"string","value":"hi"}`)
	if err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if got != "hi" {
		t.Errorf("Coerce() = %q, want %q", got, "hi")
	}
}

func TestCoerce_MapToStruct(t *testing.T) {
	// The common case in a dataflow graph: one handler returns a
	// map[string]any, a downstream handler declares a typed output.
	input := map[string]any{"name": "Ada", "age": float64(36)}
	got, err := Coerce[person](input)
	if err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if got.Name != "Ada" || got.Age != 36 {
		t.Errorf("Coerce() = %+v, want {Ada 36}", got)
	}
}

func TestCoerce_AlreadyCorrectType(t *testing.T) {
	want := person{Name: "Grace", Age: 40}
	got, err := Coerce[person](want)
	if err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if got != want {
		t.Errorf("Coerce() = %+v, want %+v", got, want)
	}
}

func TestCoerce_Int(t *testing.T) {
	got, err := Coerce[int]("42")
	if err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Coerce() = %d, want 42", got)
	}
}
