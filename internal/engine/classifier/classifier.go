package classifier

import (
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/hejijunhao/edgepair/internal/model"
)

// Figures are the fixed illustration references used in narrative entries.
type Figures struct {
	DeployLeft  string
	DeployRight string
	SubCall     string
}

// DefaultFigures points at the images served under /figures.
func DefaultFigures() Figures {
	return Figures{
		DeployLeft:  "/figures/deployment_left.png",
		DeployRight: "/figures/deployment_right.png",
		SubCall:     "/figures/subcall.png",
	}
}

// Config holds the fixed inputs of a Classifier.
type Config struct {
	// Roster lists device names by position: index 0 is left, index 1 is right.
	Roster []string
	// BothName is the device name whose records target both sides.
	BothName string
	// Labels maps execution result classes (1-based) to human labels.
	Labels  []string
	Figures Figures
}

// Classifier tags log records with an icon and derives narrative entries.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	sides    map[string]model.Side
	bothName string
	labels   []string
	figures  Figures
	rules    []rule
}

// New creates a Classifier with the default rule set.
func New(cfg Config) *Classifier {
	sides := make(map[string]model.Side, len(cfg.Roster))
	for i, name := range cfg.Roster {
		if s := model.SideOf(i); s != model.Unknown && name != "" {
			sides[name] = s
		}
	}
	figs := cfg.Figures
	if figs == (Figures{}) {
		figs = DefaultFigures()
	}
	return &Classifier{
		sides:    sides,
		bothName: cfg.BothName,
		labels:   cfg.Labels,
		figures:  figs,
		rules:    defaultRules(),
	}
}

// SideOf resolves a device name to its roster side.
func (c *Classifier) SideOf(deviceName string) model.Side {
	if s, ok := c.sides[deviceName]; ok {
		return s
	}
	if c.bothName != "" && deviceName == c.bothName {
		return model.Both
	}
	return model.Unknown
}

// Classify tags rec.Message and returns the classified event together with
// any narrative entries it produces. It never fails: records no rule accepts
// fall through to the level-icon branch.
func (c *Classifier) Classify(rec model.LogRecord) (model.ClassifiedEvent, []model.NarrativeEntry) {
	side := c.SideOf(rec.DeviceName)
	msg := norm.NFC.String(rec.Message)
	ts := rec.Time()

	for _, r := range c.rules {
		groups, ok := r.match(msg)
		if !ok {
			continue
		}
		tagged := r.icon + " " + msg
		payloads, ok := r.narrate(c, call{tagged: tagged, groups: groups, side: side, ts: ts})
		if !ok {
			break
		}
		rec.Message = tagged
		return model.ClassifiedEvent{Record: rec, Side: side, Rule: r.name, Time: ts}, entries(side, payloads)
	}

	rec.Message = c.tagByLevel(rec.Level, msg)
	return model.ClassifiedEvent{Record: rec, Side: side, Rule: RuleDefault, Time: ts}, nil
}

// tagByLevel prefixes msg with the icon for level unless msg already starts
// with a non-ASCII (icon) character.
func (c *Classifier) tagByLevel(level, msg string) string {
	if msg != "" && !printableASCII(msg[0]) {
		return msg
	}
	icon, ok := levelIcons[strings.ToUpper(level)]
	if !ok {
		slog.Warn("unrecognized log level", "level", level)
		return msg
	}
	return icon + " " + msg
}

func printableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}

func entries(side model.Side, payloads []model.Payload) []model.NarrativeEntry {
	if len(payloads) == 0 {
		return nil
	}
	out := make([]model.NarrativeEntry, 0, len(payloads))
	for _, p := range payloads {
		if e, ok := model.EntryFor(side, p); ok {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
