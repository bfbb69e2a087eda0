package entities

// ArticleNumber represents a unique article identifier
type ArticleNumber string

// ProductGroup identifies the merchandise group an article belongs to
type ProductGroup string

// Season identifies the selling season an article is planned for
type Season string

// SizeShare is one entry of an ordered size curve: the target share of
// the allocated quantity that should land on this size
type SizeShare struct {
	Size        string
	TargetShare float64
}

// Article represents a sellable article with its allocation-relevant properties
type Article struct {
	ArticleNumber ArticleNumber
	Description   string
	ProductGroup  ProductGroup
	Season        Season
	PackSize      Quantity
	SpacePerUnit  float64
	NOS           bool
	SizeCurve     []SizeShare
	AvgDailyFcst  float64
}

// HasSizeCurve reports whether size-curve repair applies to this article
func (a *Article) HasSizeCurve() bool {
	return len(a.SizeCurve) > 1
}

// SpaceDemand returns the shelf space a quantity of this article occupies
func (a *Article) SpaceDemand(qty Quantity) float64 {
	return float64(qty) * a.SpacePerUnit
}
