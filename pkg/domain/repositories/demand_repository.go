package repositories

import "github.com/mbanner77/allocengine/pkg/domain/entities"

// DemandRepository provides access to plan and forecast demand lines
type DemandRepository interface {
	GetDemandLines() ([]*entities.DemandLine, error)
	GetDemandLinesForArticle(number entities.ArticleNumber) ([]*entities.DemandLine, error)
	LoadDemandLines(lines []*entities.DemandLine) error
}
