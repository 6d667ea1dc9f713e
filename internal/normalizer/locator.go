package normalizer

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// maxNestingDepth bounds category flattening (lives[].list[] and similar).
const maxNestingDepth = 4

// Candidate is a raw record found in the feed, in document order.
type Candidate struct {
	Value gjson.Result
	// Path is a readable location such as lives[0].list[3].
	Path string
	// MapKey is set when the record came from a dict-of-dicts container.
	MapKey string
	Index  int
}

// Locator finds the list of site records inside an arbitrarily shaped feed.
type Locator struct {
	containerKeys []string
	urlFields     []string
}

// NewLocator creates a locator probing containerKeys in priority order.
// Objects holding any of urlFields are treated as records, never as categories.
func NewLocator(containerKeys, urlFields []string) *Locator {
	return &Locator{
		containerKeys: containerKeys,
		urlFields:     urlFields,
	}
}

// Locate returns the flattened record candidates of root.
func (l *Locator) Locate(root gjson.Result) ([]Candidate, error) {
	var out []Candidate

	switch {
	case root.IsArray():
		l.expand(root, "$", 0, &out)

		return out, nil

	case root.IsObject():
		sawEmpty := false
		tried := make(map[string]bool, len(l.containerKeys))

		for _, key := range l.containerKeys {
			tried[key] = true

			v, path, ok := l.unwrap(field(root, key), key)
			if !ok {
				continue
			}

			if isEmptyContainer(v) {
				sawEmpty = true

				continue
			}

			l.expand(v, path, 0, &out)

			return out, nil
		}

		// Fall back to the first non-empty list anywhere at the top level.
		var (
			firstList gjson.Result
			listKey   string
		)

		root.ForEach(func(k, v gjson.Result) bool {
			if v.IsArray() && !tried[k.String()] && !isEmptyContainer(v) {
				firstList = v
				listKey = k.String()

				return false
			}

			return true
		})

		if firstList.Exists() {
			l.expand(firstList, listKey, 0, &out)

			return out, nil
		}

		// The document itself may be a dict-of-dicts keyed by site id.
		if isDictOfDicts(root) {
			l.expand(root, "$", 0, &out)

			return out, nil
		}

		if sawEmpty {
			return out, nil
		}

		return nil, &ParseError{Err: ErrNoRecordList, Detail: fmt.Sprintf("tried keys %v", l.containerKeys)}

	default:
		return nil, &ParseError{Err: ErrUnexpectedShape, Detail: "got " + root.Type.String()}
	}
}

// expand appends the records of an array or dict-of-dicts container to out,
// descending into category objects that hold a nested container.
func (l *Locator) expand(container gjson.Result, path string, depth int, out *[]Candidate) {
	isArray := container.IsArray()
	idx := 0

	container.ForEach(func(k, v gjson.Result) bool {
		var (
			elemPath string
			mapKey   string
		)

		if isArray {
			elemPath = fmt.Sprintf("%s[%d]", path, idx)
			idx++
		} else {
			mapKey = k.String()
			elemPath = path + "." + mapKey
		}

		if depth < maxNestingDepth && v.IsObject() && !l.hasURLField(v) {
			if key, nested, ok := l.nestedContainer(v); ok {
				l.expand(nested, elemPath+"."+key, depth+1, out)

				return true
			}
		}

		*out = append(*out, Candidate{
			Value:  v,
			Path:   elemPath,
			MapKey: mapKey,
			Index:  len(*out),
		})

		return true
	})
}

// unwrap resolves the value under a container key to the record container it holds.
// Envelopes such as {"data":{"total":2,"list":[...]}} are descended into. An object
// keyed by site id counts as a container once one of its members is an object, so a
// stray null or string entry is reported as a bad record instead of hiding the rest.
func (l *Locator) unwrap(v gjson.Result, path string) (gjson.Result, string, bool) {
	for depth := 0; depth < maxNestingDepth; depth++ {
		switch {
		case v.IsArray():
			return v, path, true
		case !v.IsObject() || l.hasURLField(v):
			return gjson.Result{}, "", false
		case isEmptyContainer(v):
			return v, path, true
		case isDictOfDicts(v):
			return v, path, true
		}

		key, nested, ok := l.nestedContainer(v)
		if !ok {
			if hasObjectMember(v) {
				return v, path, true
			}

			return gjson.Result{}, "", false
		}

		v = nested
		path += "." + key
	}

	return gjson.Result{}, "", false
}

func (l *Locator) nestedContainer(obj gjson.Result) (string, gjson.Result, bool) {
	for _, key := range l.containerKeys {
		v := field(obj, key)
		if isContainer(v) {
			return key, v, true
		}
	}

	return "", gjson.Result{}, false
}

func (l *Locator) hasURLField(obj gjson.Result) bool {
	for _, key := range l.urlFields {
		if present(field(obj, key)) {
			return true
		}
	}

	return false
}

// field returns the member of obj named key. Keys are compared literally so
// names containing gjson path syntax (dots, wildcards) are safe.
func field(obj gjson.Result, key string) gjson.Result {
	var found gjson.Result

	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v

			return false
		}

		return true
	})

	return found
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

func isContainer(v gjson.Result) bool {
	return v.IsArray() || isDictOfDicts(v)
}

func hasObjectMember(v gjson.Result) bool {
	found := false

	v.ForEach(func(_, val gjson.Result) bool {
		found = val.IsObject()

		return !found
	})

	return found
}

func isEmptyContainer(v gjson.Result) bool {
	empty := true

	v.ForEach(func(_, _ gjson.Result) bool {
		empty = false

		return false
	})

	return empty
}

// isDictOfDicts reports whether v is a non-empty object whose values are all objects.
func isDictOfDicts(v gjson.Result) bool {
	if !v.IsObject() {
		return false
	}

	count := 0
	allObjects := true

	v.ForEach(func(_, val gjson.Result) bool {
		count++
		if !val.IsObject() {
			allObjects = false

			return false
		}

		return true
	})

	return count > 0 && allObjects
}
