package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// Document is the typed schema of the agent's entries.json.
type Document struct {
	Version             *int            `json:"version,omitempty"`
	LocalizationVersion *string         `json:"localizationVersion,omitempty"`
	InitialAssetCount   *int            `json:"initialAssetCount,omitempty"`
	Categories          json.RawMessage `json:"categories,omitempty"`
	Assets              []Entry         `json:"assets"`
}

// Entry is one asset in the catalog. The two URL fields use hyphenated keys.
type Entry struct {
	ID                 string            `json:"id"`
	AccessibilityLabel string            `json:"accessibilityLabel"`
	LocalizedNameKey   string            `json:"localizedNameKey"`
	ShotID             string            `json:"shotID"`
	IncludeInShuffle   bool              `json:"includeInShuffle"`
	ShowInTopLevel     bool              `json:"showInTopLevel"`
	PreferredOrder     int               `json:"preferredOrder"`
	Categories         []string          `json:"categories"`
	Subcategories      []string          `json:"subcategories"`
	PointsOfInterest   map[string]string `json:"pointsOfInterest"`
	VideoURL           string            `json:"url-4K-SDR-240FPS"`
	PreviewImageURL    string            `json:"previewImage-900x580"`
}

// JSON keys the store reads from generic entries.
const (
	keyAssets             = "assets"
	keyID                 = "id"
	keyAccessibilityLabel = "accessibilityLabel"
	keyVideoURL           = "url-4K-SDR-240FPS"
)

// entryView is the subset of an entry the store needs regardless of parse mode.
type entryView struct {
	ID          string
	DisplayName string
	VideoURL    string
}

// parsed holds a decoded catalog in exactly one of two forms. strict is used
// when the typed schema round-trips the document without loss, tree
// otherwise, so fields the schema does not know survive a rewrite.
type parsed struct {
	strict *Document
	tree   map[string]interface{}
}

var errNotObject = errors.New("catalog root is not a JSON object")

func parse(data []byte) (*parsed, error) {
	tree, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	if _, ok := tree[keyAssets].([]interface{}); !ok {
		return nil, fmt.Errorf("catalog has no %q array", keyAssets)
	}
	if doc, ok := decodeStrict(data, tree); ok {
		return &parsed{strict: doc}, nil
	}
	return &parsed{tree: tree}, nil
}

func decodeTree(data []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decoding catalog: trailing data after document")
	}
	tree, ok := root.(map[string]interface{})
	if !ok {
		return nil, errNotObject
	}
	return tree, nil
}

// decodeStrict decodes into Document and accepts the result only if encoding
// it again yields the same JSON tree.
func decodeStrict(data []byte, tree map[string]interface{}) (*Document, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}
	again, err := marshal(&doc)
	if err != nil {
		return nil, false
	}
	againTree, err := decodeTree(again)
	if err != nil || !reflect.DeepEqual(tree, againTree) {
		return nil, false
	}
	return &doc, true
}

// Strict reports whether the typed schema is in use.
func (p *parsed) Strict() bool { return p.strict != nil }

func (p *parsed) entries() []entryView {
	if p.strict != nil {
		views := make([]entryView, 0, len(p.strict.Assets))
		for _, e := range p.strict.Assets {
			views = append(views, entryView{ID: e.ID, DisplayName: e.AccessibilityLabel, VideoURL: e.VideoURL})
		}
		return views
	}
	assets, _ := p.tree[keyAssets].([]interface{})
	views := make([]entryView, 0, len(assets))
	for _, a := range assets {
		m, ok := a.(map[string]interface{})
		if !ok {
			views = append(views, entryView{})
			continue
		}
		id, _ := m[keyID].(string)
		label, _ := m[keyAccessibilityLabel].(string)
		url, _ := m[keyVideoURL].(string)
		views = append(views, entryView{ID: id, DisplayName: label, VideoURL: url})
	}
	return views
}

func (p *parsed) count() int {
	if p.strict != nil {
		return len(p.strict.Assets)
	}
	assets, _ := p.tree[keyAssets].([]interface{})
	return len(assets)
}

// remove drops every entry with id and reports whether any existed.
func (p *parsed) remove(id string) bool {
	if p.strict != nil {
		kept := p.strict.Assets[:0:0]
		for _, e := range p.strict.Assets {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		removed := len(kept) != len(p.strict.Assets)
		p.strict.Assets = kept
		return removed
	}
	assets, _ := p.tree[keyAssets].([]interface{})
	kept := make([]interface{}, 0, len(assets))
	for _, a := range assets {
		if m, ok := a.(map[string]interface{}); ok {
			if v, _ := m[keyID].(string); v == id {
				continue
			}
		}
		kept = append(kept, a)
	}
	removed := len(kept) != len(assets)
	p.tree[keyAssets] = kept
	return removed
}

// prepend inserts e at the head of the asset list.
func (p *parsed) prepend(e Entry) error {
	if p.strict != nil {
		p.strict.Assets = append([]Entry{e}, p.strict.Assets...)
		return nil
	}
	raw, err := marshal(e)
	if err != nil {
		return err
	}
	node, err := decodeTree(raw)
	if err != nil {
		return err
	}
	assets, _ := p.tree[keyAssets].([]interface{})
	p.tree[keyAssets] = append([]interface{}{node}, assets...)
	return nil
}

// encode serializes the whole document with deterministic key order.
func (p *parsed) encode() ([]byte, error) {
	if p.strict != nil {
		return marshal(p.strict)
	}
	return marshal(p.tree)
}

func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	return buf.Bytes(), nil
}
