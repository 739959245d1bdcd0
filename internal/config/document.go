// Package config loads and saves the declarative YAML document describing
// the sender's network endpoint and its scheduled messages. Unknown
// top-level keys and the raw messages[] section are preserved across a
// round trip, so a save never clobbers sections this process does not own.
package config

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/udpgen/internal/fsutil"
	"github.com/banshee-data/udpgen/internal/monitoring"
	"github.com/banshee-data/udpgen/internal/security"
)

// NetworkSection is the `sender.network` mapping.
type NetworkSection struct {
	Address     string `yaml:"address"`
	Port        uint16 `yaml:"port"`
	NetworkType string `yaml:"network_type"`
	Interface   string `yaml:"interface"`
}

// Validate checks the port range and network type.
func (n NetworkSection) Validate() error {
	if n.Port == 0 {
		return fmt.Errorf("config: sender.network.port must be in [1,65535], got 0")
	}
	switch n.NetworkType {
	case "unicast", "broadcast", "multicast":
	default:
		return fmt.Errorf("config: sender.network.network_type must be unicast|broadcast|multicast, got %q", n.NetworkType)
	}
	return nil
}

// FieldSection is one field within a MessageSection. Type is the
// `base[=expr]` string handed verbatim to the field-expression parser.
type FieldSection struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Editable *bool  `yaml:"editable,omitempty"`
}

// IsEditable returns the field's editable flag, defaulting to true when the
// document omits it.
func (f FieldSection) IsEditable() bool {
	if f.Editable == nil {
		return true
	}
	return *f.Editable
}

// MessageSection is one entry of `messages[]`. A PacketCount of 0 means
// unbounded emission.
type MessageSection struct {
	Name        string         `yaml:"name"`
	IntervalMS  uint64         `yaml:"interval"`
	Enabled     bool           `yaml:"enabled"`
	PacketCount uint64         `yaml:"packet_count"`
	Fields      []FieldSection `yaml:"fields"`
}

type senderSection struct {
	Network NetworkSection `yaml:"network"`
}

// typedDocument is the subset of the document this core owns; every other
// top-level key is preserved verbatim via Document.root.
type typedDocument struct {
	Sender   senderSection    `yaml:"sender"`
	Messages []MessageSection `yaml:"messages"`
}

const (
	senderKey   = "sender"
	messagesKey = "messages"
)

// Document is a loaded (or default) configuration document. The zero
// value is not usable; create one with Default or Load.
type Document struct {
	mu       sync.Mutex
	Sender   NetworkSection
	Messages []MessageSection

	// root is the full parsed YAML tree, retained so unknown top-level keys
	// (and, when messages[] fails to parse, its original bytes) survive a
	// save even though this core does not model them.
	root *yaml.Node
}

// Default returns a document with sensible defaults and no messages.
func Default() *Document {
	return &Document{
		Sender: NetworkSection{
			Address:     "0.0.0.0",
			Port:        9000,
			NetworkType: "unicast",
		},
	}
}

// Load reads and parses the document at path, validating the path against
// allowedDirs first. Any failure to read or parse falls back to Default()
// with a logged warning rather than preventing startup.
func Load(fs fsutil.FileSystem, path string, allowedDirs []string) *Document {
	if err := security.ValidatePathWithinAllowedDirs(path, allowedDirs); err != nil {
		monitoring.Logf("config: refusing to load %s: %v", path, err)
		return Default()
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		monitoring.Logf("config: failed to read %s, using defaults: %v", path, err)
		return Default()
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		monitoring.Logf("config: failed to parse %s, using defaults: %v", path, err)
		return Default()
	}
	if len(root.Content) == 0 {
		monitoring.Logf("config: %s is empty, using defaults", path)
		return Default()
	}

	doc := &Document{root: &root}
	mapping := root.Content[0]

	if senderNode := findMappingValue(mapping, senderKey); senderNode != nil {
		var s senderSection
		if err := senderNode.Decode(&s); err != nil {
			monitoring.Logf("config: failed to parse sender section of %s, using defaults: %v", path, err)
			doc.Sender = Default().Sender
		} else {
			doc.Sender = s.Network
		}
	} else {
		doc.Sender = Default().Sender
	}

	if messagesNode := findMappingValue(mapping, messagesKey); messagesNode != nil {
		var msgs []MessageSection
		if err := messagesNode.Decode(&msgs); err != nil {
			monitoring.Logf("config: failed to parse messages[] of %s, keeping it unmodified for a later save: %v", path, err)
			doc.Messages = nil
		} else {
			doc.Messages = msgs
		}
	}

	return doc
}

// Save writes the full ConfigDocument to path, rewriting every top-level
// key this core owns (sender, messages) from current in-memory state and
// preserving any other top-level key byte-for-byte. Save always emits a
// well-formed document.
func (d *Document) Save(fs fsutil.FileSystem, path string, allowedDirs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := security.ValidatePathWithinAllowedDirs(path, allowedDirs); err != nil {
		return fmt.Errorf("config: refusing to save %s: %w", path, err)
	}

	root := d.mergedRoot(true)
	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// SaveNetworkSection rewrites only sender.network, leaving the messages[]
// byte range untouched even if it failed to parse under the current
// schema.
func (d *Document) SaveNetworkSection(fs fsutil.FileSystem, path string, allowedDirs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := security.ValidatePathWithinAllowedDirs(path, allowedDirs); err != nil {
		return fmt.Errorf("config: refusing to save %s: %w", path, err)
	}

	root := d.mergedRoot(false)
	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// mergedRoot builds the yaml.Node tree to marshal: the original root (if
// any), with the sender key always replaced by current state, and the
// messages key replaced by current state only when rewriteMessages is true.
func (d *Document) mergedRoot(rewriteMessages bool) *yaml.Node {
	senderNode := mustEncode(senderSection{Network: d.Sender})

	if d.root == nil || len(d.root.Content) == 0 {
		td := typedDocument{Sender: senderSection{Network: d.Sender}}
		if rewriteMessages {
			td.Messages = d.Messages
		}
		return mustEncode(td)
	}

	mapping := d.root.Content[0]
	setMappingValue(mapping, senderKey, senderNode)
	if rewriteMessages {
		// A messages[] section that failed to parse at load time is written
		// back unchanged as long as no messages are set in memory.
		var probe []MessageSection
		if raw := findMappingValue(mapping, messagesKey); raw != nil && len(d.Messages) == 0 && raw.Decode(&probe) != nil {
			return d.root
		}
		setMappingValue(mapping, messagesKey, mustEncode(d.Messages))
	}
	return d.root
}

func mustEncode(v interface{}) *yaml.Node {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		panic(fmt.Sprintf("config: encode %T: %v", v, err))
	}
	return &n
}

// findMappingValue returns the value node for key within a YAML mapping
// node, or nil if absent.
func findMappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// setMappingValue replaces (or appends) key's value node within mapping.
func setMappingValue(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	mapping.Content = append(mapping.Content, keyNode, value)
}
