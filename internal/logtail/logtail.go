package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed log record.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
	// Raw is the line as read; it is the only content of unparsable lines.
	Raw string
}

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Tail reads the last maxLines records of a logrus log file.
func Tail(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

var (
	timeKeys    = []string{"timestamp", "time"}
	levelKeys   = []string{"severity", "level"}
	messageKeys = []string{"message", "msg"}
)

// Parse decodes a line written by the logrus JSON formatter (either the
// default keys or timestamp/severity/message) or the text formatter.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	var fields map[string]string
	if strings.HasPrefix(trimmed, "{") {
		fields = parseJSON(trimmed)
	} else {
		fields = parseText(trimmed)
	}
	if fields == nil {
		return Entry{Message: line, Raw: line}
	}

	e := Entry{Raw: line}
	if v, ok := take(fields, timeKeys); ok {
		e.Time, _ = time.Parse(time.RFC3339Nano, v)
	}
	if v, ok := take(fields, levelKeys); ok {
		e.Level = strings.ToLower(v)
	}
	e.Message, _ = take(fields, messageKeys)
	if e.Level == "" && e.Message == "" {
		return Entry{Message: line, Raw: line}
	}
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e
}

// FieldKeys returns the entry's field names in sorted order.
func (e Entry) FieldKeys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func take(fields map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			delete(fields, k)
			return v, true
		}
	}
	return "", false
}

func parseJSON(line string) map[string]string {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}

// parseText reads key=value pairs where values may be double quoted.
func parseText(line string) map[string]string {
	out := map[string]string{}
	rest := line
	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \"") {
			return nil
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			end := closingQuote(rest)
			if end < 0 {
				return nil
			}
			unq, err := strconv.Unquote(rest[:end+1])
			if err != nil {
				return nil
			}
			value, rest = unq, rest[end+1:]
		} else {
			sp := strings.IndexByte(rest, ' ')
			if sp < 0 {
				value, rest = rest, ""
			} else {
				value, rest = rest[:sp], rest[sp:]
			}
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
