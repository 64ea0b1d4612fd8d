package usage

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

// Lister names the procedures the service can dispatch.
type Lister interface {
	Methods() []string
}

type handler struct {
	procedures Lister
}

func New(procedures Lister) *handler {
	return &handler{
		procedures: procedures,
	}
}

func (h *handler) Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	var b strings.Builder
	b.WriteString(zsign.Usage())
	b.WriteString("\n\nRegistered procedures:\n")
	for _, method := range h.procedures.Methods() {
		fmt.Fprintf(&b, "  %s\n", method)
	}

	_, _ = w.Write([]byte(b.String()))
}
