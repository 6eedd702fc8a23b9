package middleware

import (
	"testing"
)

func TestSubjectFromAuthorizer(t *testing.T) {
	cases := []struct {
		name string
		auth map[string]interface{}
		want string
	}{
		{"nil", nil, ""},
		{"cognito claims", map[string]interface{}{"claims": map[string]interface{}{"sub": " user-1 "}}, "user-1"},
		{"lambda authorizer", map[string]interface{}{"sub": "user-2"}, "user-2"},
		{"claims win", map[string]interface{}{"claims": map[string]interface{}{"sub": "a"}, "sub": "b"}, "a"},
		{"blank claim falls through", map[string]interface{}{"claims": map[string]interface{}{"sub": ""}, "sub": "b"}, "b"},
		{"wrong type", map[string]interface{}{"claims": "sub=x"}, ""},
	}
	for _, tc := range cases {
		if got := subjectFromAuthorizer(tc.auth); got != tc.want {
			t.Fatalf("%s: want=%q got=%q", tc.name, tc.want, got)
		}
	}
}
