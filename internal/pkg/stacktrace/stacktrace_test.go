package stacktrace

import (
	"reflect"
	"strings"
	"testing"
)

func TestInternalPaths(t *testing.T) {
	tests := []struct {
		name  string
		stack string
		want  []string
	}{
		{
			name: "keeps module frames and drops recovery wrappers",
			stack: `goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/ideabox/internal/pkg/router.(*Router).recoverMiddleware.func1.1()
	/src/ideabox/internal/pkg/router/middleware_recover.go:28 +0x45
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:791 +0x132
github.com/shandysiswandi/ideabox/internal/identity/usecase.(*Usecase).VerifyOTP(...)
	/src/ideabox/internal/identity/usecase/otp_verify.go:51 +0x1d
github.com/shandysiswandi/ideabox/internal/identity/inbound.(*HTTPEndpoint).VerifyOTP(...)
	/src/ideabox/internal/identity/inbound/http.go:40 +0x9a`,
			want: []string{
				"internal/identity/usecase/otp_verify.go:51",
				"internal/identity/inbound/http.go:40",
			},
		},
		{
			name:  "no module frames",
			stack: "goroutine 1 [running]:\nmain.main()\n\t/usr/local/go/src/runtime/proc.go:283 +0x28",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := InternalPaths([]byte(tt.stack))

			// Assert
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("InternalPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInternalPaths_Bounded(t *testing.T) {
	stack := strings.Repeat("\t/src/ideabox/internal/idea/usecase/submit_idea.go:10 +0x1\n", maxFrames+5)

	if got := InternalPaths([]byte(stack)); len(got) != maxFrames {
		t.Fatalf("len = %d, want %d", len(got), maxFrames)
	}
}
