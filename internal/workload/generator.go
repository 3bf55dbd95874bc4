package workload

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/t77yq/sonde/internal/model"
)

const (
	minSleep = 1
	maxSleep = 10
)

// ErrInvalidCheckCount is returned when fewer than one check is requested
var ErrInvalidCheckCount = errors.New("check count must be at least 1")

// ServiceTemplate holds the fixed attributes written for every check
type ServiceTemplate struct {
	HostName     string
	CheckCommand string
	Use          string
}

// DefaultServiceTemplate matches the sample object configuration shipped with the engines
var DefaultServiceTemplate = ServiceTemplate{
	HostName:     "localhost",
	CheckCommand: "check-service-alive",
	Use:          "generic-service",
}

// Generator produces randomized workloads
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a generator drawing from src
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate returns count checks, each with a sleep in [1,10] seconds
func (g *Generator) Generate(count int) (model.Workload, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCheckCount, count)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	w := make(model.Workload, 0, count)
	for i := 0; i < count; i++ {
		sleep := minSleep + g.rnd.Intn(maxSleep-minSleep+1)
		w = append(w, model.Check{
			Name:  model.CheckName(sleep),
			Sleep: sleep,
		})
	}
	return w, nil
}

// Render writes the workload as engine service definitions
func Render(w model.Workload, tmpl ServiceTemplate) []byte {
	var buf bytes.Buffer
	for _, c := range w {
		fmt.Fprintf(&buf, "\ndefine service{\n")
		fmt.Fprintf(&buf, "  host_name             %s\n", tmpl.HostName)
		fmt.Fprintf(&buf, "  service_description   %s\n", c.Name)
		fmt.Fprintf(&buf, "  check_command         %s\n", tmpl.CheckCommand)
		fmt.Fprintf(&buf, "  use                   %s\n", tmpl.Use)
		fmt.Fprintf(&buf, "  _SLEEP                %d\n", c.Sleep)
		fmt.Fprintf(&buf, "}\n")
	}
	return []byte(strings.TrimSpace(buf.String()))
}
