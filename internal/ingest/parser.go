package ingest

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/f-sync/followqueue/internal/profiles"
)

const (
	fieldRelationshipsFollowing = "relationships_following"
	fieldRelationshipsFollowers = "relationships_followers"
	fieldUsers                  = "users"
	fieldStringListData         = "string_list_data"
	fieldValue                  = "value"
	fieldHref                   = "href"
	fieldUsername               = "username"
	fieldProfileURL             = "profileUrl"
	tabularFieldDelimiter       = ","
	tabularQuoteCharacter       = `"`
	headerLabelUsername         = "username"
	headerLabelProfile          = "profile"
	headerLabelName             = "name"
)

// collectionFieldPrecedence lists the object fields searched for a profile collection.
var collectionFieldPrecedence = []string{fieldRelationshipsFollowing, fieldRelationshipsFollowers, fieldUsers}

var tabularHeaderLabels = map[string]struct{}{
	headerLabelUsername: {},
	headerLabelProfile:  {},
	headerLabelName:     {},
}

// Parser converts exported list content into base profiles.
type Parser struct {
	Network profiles.Network
}

// NewParser constructs a Parser for the provided network.
func NewParser(network profiles.Network) Parser {
	return Parser{Network: network.WithDefaults()}
}

// ParseProfiles parses content using the default network.
func ParseProfiles(content string) []profiles.BaseProfile {
	return NewParser(profiles.DefaultNetwork()).ParseProfiles(content)
}

// ParseProfiles detects the content format and returns the profiles it describes in
// source order. Structured (JSON) content wins when it holds a non-empty collection;
// anything else is read as comma-delimited lines. An empty result means nothing usable
// was found.
func (parser Parser) ParseProfiles(content string) []profiles.BaseProfile {
	network := parser.Network.WithDefaults()
	if collection, found := discoverCollection(content); found {
		return resolveElements(collection, network)
	}
	return parseTabular(content, network)
}

// discoverCollection returns the profile-bearing array inside structured content.
// It reports false when the content is not JSON or the collection is missing or empty.
func discoverCollection(content string) ([]gjson.Result, bool) {
	if !gjson.Valid(content) {
		return nil, false
	}
	document := gjson.Parse(content)

	var collection gjson.Result
	switch {
	case document.IsArray():
		collection = document
	case document.IsObject():
		collection = selectObjectCollection(document)
	default:
		return nil, false
	}

	if !collection.IsArray() {
		return nil, false
	}
	elements := collection.Array()
	if len(elements) == 0 {
		return nil, false
	}
	return elements, true
}

func selectObjectCollection(document gjson.Result) gjson.Result {
	for _, fieldName := range collectionFieldPrecedence {
		if candidate := document.Get(fieldName); isTruthy(candidate) {
			return candidate
		}
	}

	var firstArray gjson.Result
	document.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			firstArray = value
			return false
		}
		return true
	})
	return firstArray
}

// isTruthy treats a key holding null, false, zero or an empty string as absent.
func isTruthy(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return value.Num != 0
	case gjson.String:
		return value.Str != ""
	default:
		return value.Exists()
	}
}

func resolveElements(elements []gjson.Result, network profiles.Network) []profiles.BaseProfile {
	resolved := make([]profiles.BaseProfile, 0, len(elements))
	for _, element := range elements {
		if profile, matched := matchElement(element, network); matched {
			resolved = append(resolved, profile)
		}
	}
	return resolved
}

func parseTabular(content string, network profiles.Network) []profiles.BaseProfile {
	var parsedProfiles []profiles.BaseProfile
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		columns := strings.Split(line, tabularFieldDelimiter)
		username := cleanCell(columns[0])
		if username == "" {
			continue
		}
		if _, isHeader := tabularHeaderLabels[strings.ToLower(username)]; isHeader {
			continue
		}

		profileURL := network.CanonicalURL(username)
		if len(columns) > 1 && network.IsProfileLink(columns[1]) {
			profileURL = cleanCell(columns[1])
		}
		parsedProfiles = append(parsedProfiles, profiles.BaseProfile{Username: username, ProfileURL: profileURL})
	}
	return parsedProfiles
}

// cleanCell strips one surrounding quote on each side, then whitespace.
func cleanCell(cell string) string {
	cell = strings.TrimPrefix(cell, tabularQuoteCharacter)
	cell = strings.TrimSuffix(cell, tabularQuoteCharacter)
	return strings.TrimSpace(cell)
}
