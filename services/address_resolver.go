package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrUnparseableAddress is returned by the structured tagger when an
// address carries no recognizable anchor (house number, state or ZIP code)
var ErrUnparseableAddress = errors.New("unparseable address")

// Address is the structured form of a free-text address line
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
}

// IsEmpty reports whether no component was extracted
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.Region == "" && a.PostalCode == ""
}

// AddressResolver turns an address line into components. Implementations
// never fail; they return a best-effort result.
type AddressResolver interface {
	Resolve(line string) Address
}

// AddressLabel names one tagged component of a US address
type AddressLabel string

const (
	LabelAddressNumber       AddressLabel = "AddressNumber"
	LabelStreetPreDirection  AddressLabel = "StreetNamePreDirectional"
	LabelStreetName          AddressLabel = "StreetName"
	LabelStreetPostType      AddressLabel = "StreetNamePostType"
	LabelOccupancyType       AddressLabel = "OccupancyType"
	LabelOccupancyIdentifier AddressLabel = "OccupancyIdentifier"
	LabelPlaceName           AddressLabel = "PlaceName"
	LabelStateName           AddressLabel = "StateName"
	LabelZipCode             AddressLabel = "ZipCode"
)

// TaggedAddress maps component labels to their text
type TaggedAddress map[AddressLabel]string

// Address joins the street components in [number, prefix, name, suffix]
// order. Occupancy is not part of the street.
func (t TaggedAddress) Address() Address {
	var parts []string
	for _, label := range []AddressLabel{LabelAddressNumber, LabelStreetPreDirection, LabelStreetName, LabelStreetPostType} {
		if v := t[label]; v != "" {
			parts = append(parts, v)
		}
	}
	return Address{
		Street:     strings.Join(parts, " "),
		City:       t[LabelPlaceName],
		Region:     t[LabelStateName],
		PostalCode: t[LabelZipCode],
	}
}

var (
	zipCodePattern       = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	addressNumberPattern = regexp.MustCompile(`^\d+[A-Za-z]?(-\d+[A-Za-z]?)?$`)
)

var usStateCodes = toSet(
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA", "HI", "ID", "IL", "IN", "IA",
	"KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC", "SD", "TN", "TX", "UT", "VT",
	"VA", "WA", "WV", "WI", "WY", "DC", "PR",
)

var streetDirectionals = toSet(
	"N", "S", "E", "W", "NE", "NW", "SE", "SW",
	"NORTH", "SOUTH", "EAST", "WEST", "NORTHEAST", "NORTHWEST", "SOUTHEAST", "SOUTHWEST",
)

var streetTypes = toSet(
	"ST", "STREET", "AVE", "AVENUE", "AV", "BLVD", "BOULEVARD", "RD", "ROAD", "DR", "DRIVE",
	"LN", "LANE", "CT", "COURT", "PL", "PLACE", "WAY", "PKWY", "PARKWAY", "HWY", "HIGHWAY",
	"CIR", "CIRCLE", "TER", "TERRACE", "TRL", "TRAIL", "SQ", "SQUARE", "LOOP", "PLZ", "PLAZA",
	"ALY", "ALLEY", "ROW", "PIKE", "EXPY", "EXPRESSWAY", "FWY", "FREEWAY", "CV", "COVE",
)

var occupancyTypes = toSet(
	"APT", "APARTMENT", "SUITE", "STE", "UNIT", "FL", "FLOOR", "RM", "ROOM", "BLDG", "BUILDING", "#",
)

func toSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// normalizeToken upper-cases a token and drops trailing periods so "St."
// and "st" classify the same way
func normalizeToken(token string) string {
	return strings.ToUpper(strings.TrimRight(token, "."))
}

func isOccupancyToken(token string) bool {
	return occupancyTypes[normalizeToken(token)] || isInlineOccupancy(token)
}

// isInlineOccupancy matches "#4B" style tokens that carry their identifier
func isInlineOccupancy(token string) bool {
	return strings.HasPrefix(token, "#") && len(token) > 1
}

type addressToken struct {
	text    string
	segment int
}

// StructuredAddressTagger labels the components of US-style address lines
type StructuredAddressTagger struct{}

// NewStructuredAddressTagger creates a tagger
func NewStructuredAddressTagger() *StructuredAddressTagger {
	return &StructuredAddressTagger{}
}

// Tag splits line into labelled components. Comma separated segments are
// honored when present: the first segment is the street, later segments
// are occupancy or place name. Without commas the street ends at the first
// street type word.
func (t *StructuredAddressTagger) Tag(line string) (TaggedAddress, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("%w: empty input", ErrUnparseableAddress)
	}

	var tokens []addressToken
	segments := 0
	for _, segment := range strings.Split(line, ",") {
		fields := strings.Fields(segment)
		if len(fields) == 0 {
			continue
		}
		for _, field := range fields {
			tokens = append(tokens, addressToken{text: field, segment: segments})
		}
		segments++
	}

	tagged := TaggedAddress{}
	end := len(tokens)

	// Tail: ZIP code then state
	if end > 1 && zipCodePattern.MatchString(tokens[end-1].text) {
		tagged[LabelZipCode] = tokens[end-1].text
		end--
	}
	if end > 1 && usStateCodes[normalizeToken(tokens[end-1].text)] {
		tagged[LabelStateName] = normalizeToken(tokens[end-1].text)
		end--
	}

	// Head: house number
	start := 0
	if start < end && addressNumberPattern.MatchString(tokens[start].text) {
		tagged[LabelAddressNumber] = tokens[start].text
		start++
	}

	if tagged[LabelAddressNumber] == "" && tagged[LabelStateName] == "" && tagged[LabelZipCode] == "" {
		return nil, fmt.Errorf("%w: no house number, state or ZIP code in %q", ErrUnparseableAddress, line)
	}

	var place []addressToken
	if segments > 1 {
		streetEnd := start
		for streetEnd < end && tokens[streetEnd].segment == 0 {
			streetEnd++
		}
		tagStreet(tagged, tokens[start:streetEnd])

		// Later segments that start with an occupancy word are not place names
		for i := streetEnd; i < end; {
			j := i
			for j < end && tokens[j].segment == tokens[i].segment {
				j++
			}
			if isOccupancyToken(tokens[i].text) {
				tagOccupancy(tagged, tokens[i:j])
			} else {
				place = append(place, tokens[i:j]...)
			}
			i = j
		}
	} else {
		streetEnd := end
		for i := start + 1; i < end; i++ {
			if streetTypes[normalizeToken(tokens[i].text)] {
				streetEnd = i + 1
				break
			}
		}
		tagStreet(tagged, tokens[start:streetEnd])

		placeFrom := streetEnd
		if placeFrom < end && isOccupancyToken(tokens[placeFrom].text) {
			occEnd := placeFrom + 1
			if occEnd < end && !isInlineOccupancy(tokens[placeFrom].text) {
				occEnd++
			}
			tagOccupancy(tagged, tokens[placeFrom:occEnd])
			placeFrom = occEnd
		}
		place = tokens[placeFrom:end]
	}

	if city := joinTokens(place); city != "" {
		tagged[LabelPlaceName] = city
	}

	return tagged, nil
}

// tagStreet labels the tokens after the house number: an optional leading
// direction, the name, the last street type word and any occupancy.
func tagStreet(tagged TaggedAddress, tokens []addressToken) {
	body := tokens
	for i, tok := range tokens {
		if isOccupancyToken(tok.text) {
			body = tokens[:i]
			tagOccupancy(tagged, tokens[i:])
			break
		}
	}

	nameEnd := len(body)
	for i := len(body) - 1; i >= 1; i-- {
		if streetTypes[normalizeToken(body[i].text)] {
			tagged[LabelStreetPostType] = body[i].text
			nameEnd = i
			break
		}
	}

	nameStart := 0
	if nameEnd > 1 && streetDirectionals[normalizeToken(body[0].text)] {
		tagged[LabelStreetPreDirection] = body[0].text
		nameStart = 1
	}
	if name := joinTokens(body[nameStart:nameEnd]); name != "" {
		tagged[LabelStreetName] = name
	}
}

func tagOccupancy(tagged TaggedAddress, tokens []addressToken) {
	if len(tokens) == 0 || tagged[LabelOccupancyType] != "" {
		return
	}
	first := tokens[0].text
	if isInlineOccupancy(first) {
		tagged[LabelOccupancyType] = "#"
		tagged[LabelOccupancyIdentifier] = strings.TrimPrefix(first, "#")
		return
	}
	tagged[LabelOccupancyType] = first
	if id := joinTokens(tokens[1:]); id != "" {
		tagged[LabelOccupancyIdentifier] = id
	}
}

func joinTokens(tokens []addressToken) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.text
	}
	return strings.Join(parts, " ")
}

// FallbackAddressParser splits on the first comma: street before it, and
// "<city...> <region> <postal>" after it
type FallbackAddressParser struct{}

// Resolve never fails
func (FallbackAddressParser) Resolve(line string) Address {
	line = strings.TrimSpace(line)
	street, remainder, found := strings.Cut(line, ",")
	if !found {
		return Address{Street: line}
	}

	address := Address{Street: strings.TrimSpace(street)}
	tokens := strings.Fields(remainder)
	if len(tokens) < 3 {
		address.City = strings.Join(tokens, " ")
		return address
	}

	address.PostalCode = tokens[len(tokens)-1]
	address.Region = tokens[len(tokens)-2]
	address.City = strings.Join(tokens[:len(tokens)-2], " ")
	return address
}

// CompositeAddressResolver tries the structured tagger and falls back to
// the comma heuristic when tagging fails, panics or extracts nothing
type CompositeAddressResolver struct {
	primary  *StructuredAddressTagger
	fallback FallbackAddressParser
	logger   *zap.Logger
}

// NewCompositeAddressResolver creates the default resolver
func NewCompositeAddressResolver(logger *zap.Logger) *CompositeAddressResolver {
	return &CompositeAddressResolver{
		primary: NewStructuredAddressTagger(),
		logger:  logger.Named("address"),
	}
}

// Resolve returns the structured components of line
func (r *CompositeAddressResolver) Resolve(line string) Address {
	address, err := r.tryPrimary(line)
	if err == nil && !address.IsEmpty() {
		return address
	}
	if err != nil {
		r.logger.Debug("structured tagging failed, using fallback", zap.String("address", line), zap.Error(err))
	}
	return r.fallback.Resolve(line)
}

func (r *CompositeAddressResolver) tryPrimary(line string) (address Address, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("address tagger panic: %v", rec)
		}
	}()

	tagged, err := r.primary.Tag(line)
	if err != nil {
		return Address{}, err
	}
	return tagged.Address(), nil
}
