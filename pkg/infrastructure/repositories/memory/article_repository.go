package memory

import (
	"fmt"
	"sync"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// ArticleRepository provides in-memory article master storage
type ArticleRepository struct {
	mu       sync.RWMutex
	articles map[entities.ArticleNumber]*entities.Article
	order    []entities.ArticleNumber
}

// NewArticleRepository creates a new in-memory article repository
func NewArticleRepository() *ArticleRepository {
	return &ArticleRepository{articles: make(map[entities.ArticleNumber]*entities.Article)}
}

// Verify interface compliance
var _ repositories.ArticleRepository = (*ArticleRepository)(nil)

// GetArticle returns one article by number
func (r *ArticleRepository) GetArticle(number entities.ArticleNumber) (*entities.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	article, ok := r.articles[number]
	if !ok {
		return nil, fmt.Errorf("article %s not found", number)
	}
	return article, nil
}

// GetArticles returns all articles in load order
func (r *ArticleRepository) GetArticles() ([]*entities.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Article, 0, len(r.order))
	for _, number := range r.order {
		out = append(out, r.articles[number])
	}
	return out, nil
}

// GetArticlesByGroup returns the articles of one product group in load order
func (r *ArticleRepository) GetArticlesByGroup(group entities.ProductGroup) ([]*entities.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Article
	for _, number := range r.order {
		if r.articles[number].ProductGroup == group {
			out = append(out, r.articles[number])
		}
	}
	return out, nil
}

// LoadArticles loads articles into the repository
func (r *ArticleRepository) LoadArticles(articles []*entities.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, article := range articles {
		if _, exists := r.articles[article.ArticleNumber]; !exists {
			r.order = append(r.order, article.ArticleNumber)
		}
		r.articles[article.ArticleNumber] = article
	}
	return nil
}
