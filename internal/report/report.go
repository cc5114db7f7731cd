// Package report describes a project descriptor for the info command.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/output"
	"github.com/agbgames/cgt/internal/project"
	"github.com/agbgames/cgt/internal/schema"
	"github.com/agbgames/cgt/internal/version"
)

// Format selects how an Info is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat parses a --format value.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
}

// PathInfo is a directory or file named by a descriptor key.
type PathInfo struct {
	Key    string `json:"key" yaml:"key"`
	Path   string `json:"path" yaml:"path"`
	Exists bool   `json:"exists" yaml:"exists"`
	// Line is where the key is defined.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// EntryInfo is a descriptor entry with its resolved value.
type EntryInfo struct {
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Resolved string `json:"resolved" yaml:"resolved"`
	Line     int    `json:"line" yaml:"line"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	// References lists the keys named by $key$ in Value.
	References []string `json:"references,omitempty" yaml:"references,omitempty"`
}

// Info summarizes a descriptor.
type Info struct {
	Descriptor     string                  `json:"descriptor" yaml:"descriptor"`
	Exists         bool                    `json:"exists" yaml:"exists"`
	Project        string                  `json:"project,omitempty" yaml:"project,omitempty"`
	ToolVersion    string                  `json:"tool_version" yaml:"tool_version"`
	BuilderVersion string                  `json:"builder_version,omitempty" yaml:"builder_version,omitempty"`
	RequireVersion bool                    `json:"require_version" yaml:"require_version"`
	Compatible     bool                    `json:"compatible" yaml:"compatible"`
	Paths          []PathInfo              `json:"paths" yaml:"paths"`
	Check          *descriptor.CheckResult `json:"check" yaml:"check"`
	Entries        []EntryInfo             `json:"entries" yaml:"entries"`
}

// pathKeys are the keys whose values name filesystem locations.
var pathKeys = []string{
	descriptor.KeySourceDir,
	descriptor.KeyOutputDir,
	descriptor.KeyResourcesDir,
	descriptor.KeyResourcesOut,
}

// FromStore builds an Info for store.
func FromStore(store *descriptor.Store, toolVersion string) *Info {
	info := &Info{
		Descriptor:  store.Path(),
		Exists:      store.Exists(),
		Project:     store.GetKey(descriptor.KeyProjectName),
		ToolVersion: toolVersion,
		Compatible:  true,
		Paths:       []PathInfo{},
		Check:       store.Check(),
		Entries:     []EntryInfo{},
	}

	info.BuilderVersion = store.GetKey(descriptor.KeyBuilderVersion)
	info.RequireVersion, _ = store.GetBool(descriptor.KeyBuilderRequireVersion, false)
	if info.BuilderVersion != "" {
		ok, err := version.Matches(info.BuilderVersion, toolVersion)
		info.Compatible = ok && err == nil
	}

	base := store.Dir()
	for _, key := range pathKeys {
		v := store.GetKey(key)
		if v == "" {
			continue
		}
		info.Paths = append(info.Paths, pathInfo(store, key, project.Abs(base, v)))
	}
	if src, main := store.GetKey(descriptor.KeySourceDir), store.GetKey(descriptor.KeySourceMain); src != "" && main != "" {
		info.Paths = append(info.Paths, pathInfo(store, descriptor.KeySourceMain, project.Abs(project.Abs(base, src), main)))
	}

	for _, e := range store.Entries() {
		ei := EntryInfo{Key: e.Key, Value: e.Value, Line: e.Line, References: descriptor.References(e.Value)}
		if v, err := store.Resolve(e.Key); err != nil {
			ei.Error = err.Error()
		} else {
			ei.Resolved = v
		}
		info.Entries = append(info.Entries, ei)
	}
	return info
}

func pathInfo(store *descriptor.Store, key, path string) PathInfo {
	_, err := os.Stat(path)
	pi := PathInfo{Key: key, Path: path, Exists: err == nil}
	if e, ok := store.Lookup(key); ok {
		pi.Line = e.Line
	}
	return pi
}

// Render writes info to w in the requested format.
func Render(w io.Writer, info *Info, format Format) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		if err := schema.ValidateInfo(data); err != nil {
			return fmt.Errorf("render info: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	case FormatText, "":
		renderText(output.NewWithWriters(w, w, false), info)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderText(out *output.Writer, info *Info) {
	out.Println("Descriptor: %s", info.Descriptor)
	if !info.Exists {
		out.Println("  (file not found)")
	}
	if info.Project != "" {
		out.Println("Project:    %s", info.Project)
	}
	out.Println("cgt:        %s", info.ToolVersion)
	if info.BuilderVersion != "" {
		status := "compatible"
		if !info.Compatible {
			status = "incompatible"
		}
		out.Println("Builder:    %s (%s, required: %s)", info.BuilderVersion, status, strconv.FormatBool(info.RequireVersion))
	}

	if len(info.Paths) > 0 {
		out.Section("Paths")
		rows := make([][]string, len(info.Paths))
		for i, p := range info.Paths {
			state := "ok"
			if !p.Exists {
				state = "missing"
			}
			rows[i] = []string{p.Key, p.Path, state}
		}
		out.Table([]string{"Key", "Path", "State"}, rows)
	}

	if len(info.Entries) > 0 {
		out.Section("Entries")
		rows := make([][]string, len(info.Entries))
		for i, e := range info.Entries {
			value := e.Resolved
			if e.Error != "" {
				value = "<" + e.Error + ">"
			}
			raw := ""
			if len(e.References) > 0 {
				raw = e.Value
			}
			rows[i] = []string{strconv.Itoa(e.Line), e.Key, value, raw}
		}
		out.Table([]string{"Line", "Key", "Value", "Raw"}, rows)
	}

	out.Section("Check")
	for _, e := range info.Check.Errors {
		out.Println("%s", e)
	}
	out.Println("Check result: %s", info.Check.Type)
}
