package classifier

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hejijunhao/edgepair/internal/model"
)

// Rule names reported in ClassifiedEvent.Rule.
const (
	RuleHealth         = "health"
	RuleDeployed       = "deployment_created"
	RuleModuleRun      = "module_run"
	RulePreparing      = "preparing"
	RuleRunning        = "running"
	RuleDeploying      = "deploying"
	RuleSubCall        = "subcall"
	RuleResultLocation = "result_location"
	RuleResult         = "result"
	RuleFailed         = "failed"
	RuleDefault        = "default"
)

// Icons prefixed to tagged messages.
const (
	IconHealth    = "🟢"
	IconDeploy    = "🚀"
	IconRunning   = "🏃"
	IconPreparing = "📦"
	IconDeploying = "🚚"
	IconSubCall   = "📡"
	IconImage     = "🖼️"
	IconResult    = "🎯"
	IconFailed    = "❌"
)

var levelIcons = map[string]string{
	model.LevelInfo:    "ℹ️",
	model.LevelError:   "🔴",
	model.LevelWarning: "⚠️",
	model.LevelDebug:   "🐞",
}

// DeployedText is the confirmation shown after the deployment illustration.
const DeployedText = "Module deployed and ready ✅"

type call struct {
	tagged string
	groups []string
	side   model.Side
	ts     time.Time
}

// rule pairs a message matcher with a pure narration handler. narrate returns
// ok=false to reject the match, sending the record to the default branch.
type rule struct {
	name    string
	icon    string
	match   func(msg string) ([]string, bool)
	narrate func(c *Classifier, in call) ([]model.Payload, bool)
}

// defaultRules is ordered: exact messages first, then templates. First match wins.
func defaultRules() []rule {
	return []rule{
		{name: RuleHealth, icon: IconHealth, match: exact("Health check done"), narrate: silent},
		{name: RuleDeployed, icon: IconDeploy, match: exact("Deployment created"), narrate: deployed},
		{name: RuleModuleRun, icon: IconRunning, match: exact("Module run"), narrate: silent},
		{name: RulePreparing, icon: IconPreparing, match: template(`^Preparing module (.+)$`), narrate: echo},
		{name: RuleRunning, icon: IconRunning, match: template(`^Running function (.+)$`), narrate: echo},
		{name: RuleDeploying, icon: IconDeploying, match: template(`^Deploying module (.+)$`), narrate: echo},
		{name: RuleSubCall, icon: IconSubCall, match: template(`^Sub-call to (.+)$`), narrate: subCall},
		{name: RuleResultLocation, icon: IconImage, match: template(`^Result available at (\S+)$`), narrate: resultImage},
		{name: RuleResult, icon: IconResult, match: template(`^(\S+) execution result: (-?\d+)$`), narrate: result},
		{name: RuleFailed, icon: IconFailed, match: template(`^Execution failed: (.+)$`), narrate: echo},
	}
}

func exact(s string) func(string) ([]string, bool) {
	return func(msg string) ([]string, bool) {
		return nil, msg == s
	}
}

func template(expr string) func(string) ([]string, bool) {
	re := regexp.MustCompile(expr)
	return func(msg string) ([]string, bool) {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			return nil, false
		}
		return m[1:], true
	}
}

func silent(*Classifier, call) ([]model.Payload, bool) { return nil, true }

func echo(_ *Classifier, in call) ([]model.Payload, bool) {
	return []model.Payload{{Text: in.tagged}}, true
}

func deployed(c *Classifier, in call) ([]model.Payload, bool) {
	img := c.figures.DeployLeft
	if in.side == model.Right {
		img = c.figures.DeployRight
	}
	return []model.Payload{{Image: img}, {Text: DeployedText}}, true
}

func subCall(c *Classifier, in call) ([]model.Payload, bool) {
	return []model.Payload{{Image: c.figures.SubCall, Caption: in.tagged}}, true
}

func resultImage(_ *Classifier, in call) ([]model.Payload, bool) {
	return []model.Payload{{Image: cacheBust(in.groups[0], in.ts), Caption: in.tagged}}, true
}

func result(c *Classifier, in call) ([]model.Payload, bool) {
	module := in.groups[0]
	class, err := strconv.Atoi(in.groups[1])
	if err != nil || class < 1 || class > len(c.labels) {
		slog.Warn("execution result class out of range",
			"module", module, "class", in.groups[1], "labels", len(c.labels))
		return nil, false
	}
	return []model.Payload{{Text: fmt.Sprintf("%s result: **%s**", module, c.labels[class-1])}}, true
}

// cacheBust appends a t=<unix ms> query parameter derived from the record time.
func cacheBust(ref string, ts time.Time) string {
	sep := "?"
	if strings.Contains(ref, "?") {
		sep = "&"
	}
	return ref + sep + "t=" + strconv.FormatInt(ts.UnixMilli(), 10)
}
