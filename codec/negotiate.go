package codec

import "github.com/pkg/errors"

// Negotiator splits a codec list across the legacy and extended tables.
type Negotiator struct {
	Legacy   *LegacyTable
	Extended *ExtendedTable
}

// NewNegotiator returns a Negotiator whose extended table is built for platformLevel.
func NewNegotiator(platformLevel int) *Negotiator {
	return &Negotiator{
		Legacy:   NewLegacyTable(),
		Extended: NewExtendedTable(platformLevel),
	}
}

// DefaultNegotiator has every platform-gated codec enabled.
func DefaultNegotiator() *Negotiator {
	return NewNegotiator(AllPlatforms)
}

// Negotiate routes each identifier to the table that knows it and returns
// both wire forms. It fails without a result if mimes is empty or if any
// identifier is in neither table.
func (n *Negotiator) Negotiate(mimes []string) (Capabilities, error) {
	if len(mimes) == 0 {
		return Capabilities{}, errors.Wrap(ErrInvalidConfiguration, "at least one codec required")
	}

	var legacy, extended []string
	for _, mime := range mimes {
		switch {
		case n.Legacy.IsKnown(mime):
			legacy = append(legacy, mime)
		case n.Extended.IsKnown(mime):
			extended = append(extended, mime)
		default:
			return Capabilities{}, errors.Wrapf(ErrUnsupportedCodec, "%s", mime)
		}
	}

	mask, err := n.Legacy.ToWireForm(legacy)
	if err != nil {
		return Capabilities{}, err
	}
	tags, err := n.Extended.ToWireForm(extended)
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{VideoCodecs: mask, ExVideoCodecs: tags}, nil
}

// Supported lists the identifiers announced by caps, legacy ones first.
func (n *Negotiator) Supported(caps Capabilities) []string {
	return append(n.Legacy.FromWireForm(caps.VideoCodecs), n.Extended.FromWireForm(caps.ExVideoCodecs)...)
}
