// Package course holds the course data the engine needs for net scoring:
// per-hole par and stroke index. Courses load from YAML files; a built-in
// default course is used when no file is supplied.
package course

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Hole describes one hole of the course.
type Hole struct {
	Number      int `yaml:"number"`
	Par         int `yaml:"par"`
	StrokeIndex int `yaml:"stroke_index"`
	Yards       int `yaml:"yards,omitempty"`
}

// Course is an 18-hole course definition.
type Course struct {
	Name  string `yaml:"name"`
	Holes []Hole `yaml:"holes"`
}

// Load reads a course definition from a YAML file and validates it.
func Load(path string) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	var c Course
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse course file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("course %q: %w", c.Name, err)
	}
	return &c, nil
}

// Validate checks that the course has 18 holes numbered 1..18 with stroke
// indexes forming a permutation of 1..18 and sane pars.
func (c *Course) Validate() error {
	if len(c.Holes) != 18 {
		return fmt.Errorf("expected 18 holes, got %d", len(c.Holes))
	}
	seenNum := make(map[int]bool, 18)
	seenIdx := make(map[int]bool, 18)
	for _, h := range c.Holes {
		if h.Number < 1 || h.Number > 18 || seenNum[h.Number] {
			return fmt.Errorf("bad hole number %d", h.Number)
		}
		if h.StrokeIndex < 1 || h.StrokeIndex > 18 || seenIdx[h.StrokeIndex] {
			return fmt.Errorf("hole %d: bad stroke index %d", h.Number, h.StrokeIndex)
		}
		if h.Par < 3 || h.Par > 6 {
			return fmt.Errorf("hole %d: bad par %d", h.Number, h.Par)
		}
		seenNum[h.Number] = true
		seenIdx[h.StrokeIndex] = true
	}
	return nil
}

// Par returns the par for the given hole number.
func (c *Course) Par(hole int) int {
	return c.hole(hole).Par
}

// StrokeIndex returns the stroke index (1 = hardest) for the hole.
func (c *Course) StrokeIndex(hole int) int {
	return c.hole(hole).StrokeIndex
}

func (c *Course) hole(number int) Hole {
	for _, h := range c.Holes {
		if h.Number == number {
			return h
		}
	}
	return Hole{Number: number, Par: 4, StrokeIndex: 18}
}

// StrokesReceived returns how many handicap strokes a player gets on a hole
// with the given stroke index: one stroke when the rounded handicap covers
// the index, a second for handicaps above 18.
func StrokesReceived(handicap float64, strokeIndex int) int {
	h := int(math.Round(handicap))
	strokes := 0
	if h >= strokeIndex {
		strokes++
	}
	if h-18 >= strokeIndex {
		strokes++
	}
	return strokes
}

// Default returns a reasonable built-in par-72 course.
func Default() *Course {
	pars := []int{4, 5, 3, 4, 4, 3, 5, 4, 4, 4, 3, 5, 4, 4, 3, 5, 4, 4}
	// Odd stroke indexes on the front nine, even on the back, hardest first.
	indexes := []int{5, 9, 17, 1, 7, 15, 11, 3, 13, 6, 16, 10, 2, 8, 18, 12, 4, 14}
	holes := make([]Hole, 18)
	for i := range holes {
		holes[i] = Hole{Number: i + 1, Par: pars[i], StrokeIndex: indexes[i]}
	}
	return &Course{Name: "default", Holes: holes}
}
