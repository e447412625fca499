// Command fuzzyinspect runs one inference of the parking rule base and prints
// the crisp command, input memberships and the rules that fired.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/fuzzy"
)

type inspection struct {
	Velocity    float64                       `json:"velocity"`
	Steering    float64                       `json:"steering"`
	Memberships map[string]map[string]float64 `json:"memberships"`
	Rules       []fuzzy.ActiveRule            `json:"rules"`
}

func run(s components.Sensors) (inspection, error) {
	fis, err := fuzzy.NewParkingSystem()
	if err != nil {
		return inspection{}, err
	}
	res := fis.Infer(fuzzy.SensorInputs(s))
	cmd := fuzzy.Command(res)

	p := inspection{
		Velocity:    cmd.Velocity,
		Steering:    cmd.Steering,
		Memberships: make(map[string]map[string]float64),
		Rules:       fis.ActiveRules(res.Snapshot),
	}
	for _, in := range []string{fuzzy.InputFront, fuzzy.InputLateral, fuzzy.InputAngle, fuzzy.InputDepth} {
		p.Memberships[in] = res.Snapshot.Memberships(in)
	}
	return p, nil
}

func printTerms(name string, m map[string]float64) {
	terms := make([]string, 0, len(m))
	for t := range m {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	fmt.Printf("  %s:", name)
	for _, t := range terms {
		if m[t] > 0 {
			fmt.Printf(" %s=%.3f", t, m[t])
		}
	}
	fmt.Println()
}

func main() {
	front := flag.Float64("front", 200, "Front sensor distance")
	lateral := flag.Float64("lateral", 0, "Lateral offset from the bay centreline")
	angle := flag.Float64("angle", 0, "Heading error to the bay axis in degrees")
	depth := flag.Float64("depth", 0, "Depth into the bay")
	asJSON := flag.Bool("json", false, "Print JSON instead of text")
	flag.Parse()

	p, err := run(components.Sensors{Front: *front, Lateral: *lateral, Angle: *angle, Depth: *depth})
	if err != nil {
		log.Fatalf("building rule base: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			log.Fatalf("encoding: %v", err)
		}
		return
	}

	fmt.Printf("velocity=%.3f steering=%.3f\n", p.Velocity, p.Steering)
	fmt.Println("Memberships:")
	for _, in := range []string{fuzzy.InputFront, fuzzy.InputLateral, fuzzy.InputAngle, fuzzy.InputDepth} {
		printTerms(in, p.Memberships[in])
	}
	fmt.Printf("Active rules (%d):\n", len(p.Rules))
	for _, r := range p.Rules {
		fmt.Printf("  %.3f  #%d %s\n", r.Activation, r.Index, r.Description)
	}
}
