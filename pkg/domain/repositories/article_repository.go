package repositories

import "github.com/mbanner77/allocengine/pkg/domain/entities"

// ArticleRepository provides access to article master data
type ArticleRepository interface {
	GetArticle(number entities.ArticleNumber) (*entities.Article, error)
	GetArticles() ([]*entities.Article, error)
	GetArticlesByGroup(group entities.ProductGroup) ([]*entities.Article, error)
	LoadArticles(articles []*entities.Article) error
}
