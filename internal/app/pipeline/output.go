package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"

	apperrors "audio2json/internal/app/errors"
	"audio2json/internal/app/model"
	"audio2json/internal/app/util/files"
	envconfig "audio2json/internal/config"
)

// OutputPath returns <outputDir>/<input stem>.json.
func OutputPath(outputDir string, inputPath string) string {
	return filepath.Join(outputDir, files.Stem(inputPath)+".json")
}

// OutputPlan maps every input of a batch to its output file.
type OutputPlan struct {
	paths map[string]string
	// Collisions lists groups of inputs that share a stem.
	Collisions [][]model.AudioFile
}

// PlanOutputs assigns output paths for a batch. Inputs sharing a stem
// (call.wav, call.mp3) collide: with CollisionOverwrite they keep <stem>.json
// and the later file wins; with CollisionDisambiguate each becomes
// <basename>.json (call.wav.json, call.mp3.json).
func PlanOutputs(audioFiles []model.AudioFile, outputDir string, policy string) *OutputPlan {
	plan := &OutputPlan{paths: make(map[string]string, len(audioFiles))}

	byStem := lo.GroupBy(audioFiles, func(f model.AudioFile) string {
		return files.Stem(f.FullPath)
	})

	for _, f := range audioFiles {
		group := byStem[files.Stem(f.FullPath)]
		if len(group) > 1 && policy == envconfig.CollisionDisambiguate {
			plan.paths[f.FullPath] = filepath.Join(outputDir, filepath.Base(f.FullPath)+".json")
			continue
		}
		plan.paths[f.FullPath] = OutputPath(outputDir, f.FullPath)
	}

	seen := make(map[string]bool)
	for _, f := range audioFiles {
		stem := files.Stem(f.FullPath)
		if group := byStem[stem]; len(group) > 1 && !seen[stem] {
			seen[stem] = true
			plan.Collisions = append(plan.Collisions, group)
		}
	}

	return plan
}

// PathFor returns the planned output path, falling back to OutputPath for
// files the plan has not seen.
func (p *OutputPlan) PathFor(f model.AudioFile, outputDir string) string {
	if path, ok := p.paths[f.FullPath]; ok {
		return path
	}
	return OutputPath(outputDir, f.FullPath)
}

// FormatJSON checks that raw is a JSON document and writes it back with
// four-space indentation. Object keys keep the order the model produced them
// in; a repeated key keeps its first position and takes its last value.
// Numbers keep their original spelling.
func FormatJSON(raw []byte) (model.TranscriptionResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		var decoded any
		err := json.Unmarshal(trimmed, &decoded)
		return nil, apperrors.WithKind(apperrors.ErrParseFailed,
			fmt.Errorf("%w (response starts with %q)", err, snippet(trimmed, 80)))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	value, err := decodeValue(dec)
	if err != nil {
		return nil, apperrors.WithKind(apperrors.ErrParseFailed, err)
	}

	var compact bytes.Buffer
	if err := writeValue(&compact, value); err != nil {
		return nil, apperrors.WithKind(apperrors.ErrParseFailed, err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, compact.Bytes(), "", envconfig.DefaultIndent); err != nil {
		return nil, apperrors.WithKind(apperrors.ErrParseFailed, err)
	}
	return buf.Bytes(), nil
}

// orderedObject is a decoded JSON object in first-seen key order.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) set(key string, value any) {
	if _, seen := o.values[key]; !seen {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &orderedObject{values: map[string]any{}}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected %q", delim)
	}
}

func writeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case *orderedObject:
		buf.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, v.values[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case string:
		return writeString(buf, v)
	case json.Number:
		buf.WriteString(v.String())
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

// writeString encodes s without HTML escaping, so "<tag>" stays readable.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func snippet(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
