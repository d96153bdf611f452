package names

import "testing"

// TestParse_Prefixes verifies that each importance prefix sets exactly its
// corresponding flag and leaves the others false.
func TestParse_Prefixes(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		wantImportant bool
		wantVoid      bool
		wantPartial   bool
	}{
		{name: "bare", input: "loadProfile", wantImportant: false, wantVoid: false, wantPartial: false},
		{name: "important", input: "!checkAuth", wantImportant: true},
		{name: "void", input: "?logAccess", wantVoid: true},
		{name: "partial", input: "%configure", wantPartial: true},
		{name: "reserved plus carries no metadata", input: "+extra"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ref, err := Parse(testCase.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", testCase.input, err)
			}
			if ref.Important != testCase.wantImportant {
				t.Errorf("Important = %v, want %v", ref.Important, testCase.wantImportant)
			}
			if ref.Void != testCase.wantVoid {
				t.Errorf("Void = %v, want %v", ref.Void, testCase.wantVoid)
			}
			if ref.Partial != testCase.wantPartial {
				t.Errorf("Partial = %v, want %v", ref.Partial, testCase.wantPartial)
			}
		})
	}
}

// TestParse_MemberPath verifies that dotted member segments are captured
// separately from the root identifier.
func TestParse_MemberPath(t *testing.T) {
	ref, err := Parse("getUser.name")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if ref.Root != "getUser" {
		t.Errorf("Root = %q, want %q", ref.Root, "getUser")
	}
	if ref.MemberPath() != "name" {
		t.Errorf("MemberPath() = %q, want %q", ref.MemberPath(), "name")
	}
	if !ref.HasMembers() {
		t.Error("HasMembers() = false, want true")
	}
}

// TestParse_PrivateNode verifies the trailing-underscore private marker is
// detected without being stripped from Root.
func TestParse_PrivateNode(t *testing.T) {
	ref, err := Parse("cache_")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !ref.Private {
		t.Error("Private = false, want true")
	}
	if ref.Root != "cache_" {
		t.Errorf("Root = %q, want %q (underscore preserved)", ref.Root, "cache_")
	}
}

// TestParse_ArgsReference covers both args.NAME and args.* forms.
func TestParse_ArgsReference(t *testing.T) {
	named, err := Parse("args.userID")
	if err != nil {
		t.Fatalf("Parse(args.userID) returned error: %v", err)
	}
	if !named.IsArgs || named.ArgsAll {
		t.Errorf("args.userID: IsArgs=%v ArgsAll=%v, want IsArgs=true ArgsAll=false", named.IsArgs, named.ArgsAll)
	}
	if named.ArgName != "userID" {
		t.Errorf("ArgName = %q, want %q", named.ArgName, "userID")
	}
	if named.ShortName() != "userID" {
		t.Errorf("ShortName() = %q, want %q", named.ShortName(), "userID")
	}

	wildcard, err := Parse("args.*")
	if err != nil {
		t.Fatalf("Parse(args.*) returned error: %v", err)
	}
	if !wildcard.ArgsAll {
		t.Error("ArgsAll = false, want true")
	}

	if _, err := Parse("args.*.extra"); err == nil {
		t.Error("Parse(args.*.extra) should reject member paths after the wildcard")
	}

	if _, err := Parse("args."); err == nil {
		t.Error("Parse(args.) should reject a missing argument name")
	}
}

// TestParse_Errors verifies malformed references are rejected.
func TestParse_Errors(t *testing.T) {
	for _, input := range []string{"", "!", "?", "%"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) should return an error", input)
		}
	}
}

// TestRef_AliasDefault verifies Alias() defaults to ShortName() for
// non-args references, matching the peer compiler's default-alias rule.
func TestRef_AliasDefault(t *testing.T) {
	ref, err := Parse("!getUser.name")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if ref.Alias() != "getUser" {
		t.Errorf("Alias() = %q, want %q", ref.Alias(), "getUser")
	}
}
