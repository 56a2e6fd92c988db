package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hejijunhao/edgepair/internal/model"
)

// SetupFile is the YAML description of a demo stage.
//
//	devices:
//	  - name: raspi1
//	    id: 666d5f52c015bf5d9be90567
//	    address: http://172.15.0.21:5000
//	  - name: raspi2
//	    ...
//	labels: imagenet_labels.txt
//	figures:
//	  deploy_left: deployment_left.png
type SetupFile struct {
	Devices []model.Device `yaml:"devices"`
	Labels  string         `yaml:"labels,omitempty"`
	Figures Figures        `yaml:"figures,omitempty"`
}

// LoadSetup reads a setup file. Relative label paths resolve against the
// file's directory.
func LoadSetup(path string) (*SetupFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup file: %w", err)
	}

	var s SetupFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse setup file: %w", err)
	}
	if s.Labels != "" && !filepath.IsAbs(s.Labels) {
		s.Labels = filepath.Join(filepath.Dir(path), s.Labels)
	}
	return &s, nil
}

// ApplySetup overlays the setup file onto c. Empty fields keep their
// current values; EDGEPAIR_LABELS wins over the file's label path.
func (c *Config) ApplySetup(s *SetupFile) {
	if len(s.Devices) > 0 {
		c.Setup.Roster = s.Devices
	}
	if s.Labels != "" && c.Setup.LabelsPath == "" {
		c.Setup.LabelsPath = s.Labels
	}
	if v := s.Figures.DeployLeft; v != "" {
		c.Setup.Figures.DeployLeft = figureRef(v)
	}
	if v := s.Figures.DeployRight; v != "" {
		c.Setup.Figures.DeployRight = figureRef(v)
	}
	if v := s.Figures.SubCall; v != "" {
		c.Setup.Figures.SubCall = figureRef(v)
	}
}

// figureRef keeps URLs and rooted paths, and mounts bare names under /figures.
func figureRef(v string) string {
	if strings.HasPrefix(v, "/") || strings.Contains(v, "://") {
		return v
	}
	return FigureURL(v)
}
