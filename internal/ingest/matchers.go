package ingest

import (
	"github.com/tidwall/gjson"

	"github.com/f-sync/followqueue/internal/profiles"
)

// elementMatcher resolves one collection element into a profile, reporting false when
// the element does not have the shape the matcher understands.
type elementMatcher func(element gjson.Result, network profiles.Network) (profiles.BaseProfile, bool)

// elementMatchers is evaluated in order; the first match wins.
var elementMatchers = []elementMatcher{
	matchStringListData,
	matchUsernameField,
	matchBareString,
}

func matchElement(element gjson.Result, network profiles.Network) (profiles.BaseProfile, bool) {
	for _, matcher := range elementMatchers {
		if profile, matched := matcher(element, network); matched {
			return profile, true
		}
	}
	return profiles.BaseProfile{}, false
}

// matchStringListData reads the official export shape:
//
//	{"string_list_data": [{"href": "https://www.instagram.com/alice", "value": "alice"}]}
func matchStringListData(element gjson.Result, network profiles.Network) (profiles.BaseProfile, bool) {
	if !element.IsObject() {
		return profiles.BaseProfile{}, false
	}
	listData := element.Get(fieldStringListData)
	if !listData.IsArray() {
		return profiles.BaseProfile{}, false
	}
	entries := listData.Array()
	if len(entries) == 0 || !entries[0].IsObject() {
		return profiles.BaseProfile{}, false
	}
	username := stringField(entries[0], fieldValue)
	if username == "" {
		return profiles.BaseProfile{}, false
	}
	profileURL := stringField(entries[0], fieldHref)
	if profileURL == "" {
		profileURL = network.CanonicalURL(username)
	}
	return profiles.BaseProfile{Username: username, ProfileURL: profileURL}, true
}

// matchUsernameField reads simple records such as {"username": "alice", "profileUrl": "..."}.
func matchUsernameField(element gjson.Result, network profiles.Network) (profiles.BaseProfile, bool) {
	if !element.IsObject() {
		return profiles.BaseProfile{}, false
	}
	username := stringField(element, fieldUsername)
	if username == "" {
		return profiles.BaseProfile{}, false
	}
	profileURL := stringField(element, fieldProfileURL)
	if profileURL == "" {
		profileURL = network.CanonicalURL(username)
	}
	return profiles.BaseProfile{Username: username, ProfileURL: profileURL}, true
}

// matchBareString reads plain username strings.
func matchBareString(element gjson.Result, network profiles.Network) (profiles.BaseProfile, bool) {
	if element.Type != gjson.String || element.Str == "" {
		return profiles.BaseProfile{}, false
	}
	return profiles.BaseProfile{Username: element.Str, ProfileURL: network.CanonicalURL(element.Str)}, true
}

func stringField(object gjson.Result, fieldName string) string {
	value := object.Get(fieldName)
	if value.Type != gjson.String {
		return ""
	}
	return value.Str
}
