package tests

import (
	"github.com/wieeerzbickim/community-feast/internal/domain"
)

func (s *IntegrationTestSuite) TestCatalog_CreateAndFind() {
	s.seedUser(100, "producer")

	id, err := s.CatalogService.Create(s.Ctx, &domain.Product{
		ProducerID:    100,
		Name:          "Rye Sourdough",
		Price:         650,
		Unit:          "loaf",
		StockQuantity: 8,
		Available:     true,
		Category:      "bakery",
	})
	s.Require().NoError(err)

	product, err := s.CatalogService.FindByID(s.Ctx, id)
	s.Require().NoError(err)
	s.Require().Equal("Rye Sourdough", product.Name)
	s.Require().Equal(int64(650), product.Price)
}

func (s *IntegrationTestSuite) TestCatalog_SoftDeleteHidesFromList() {
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 5, false)

	s.Require().NoError(s.CatalogService.Delete(s.Ctx, productID, 100))

	_, err := s.CatalogService.FindByID(s.Ctx, productID)
	s.Require().ErrorIs(err, domain.ErrProductNotFound)

	products, total, err := s.CatalogService.List(s.Ctx, 20, 0, "")
	s.Require().NoError(err)
	s.Require().Zero(total)
	s.Require().Empty(products)
}

func (s *IntegrationTestSuite) TestCatalog_UpdateScopedToOwner() {
	s.seedUser(100, "producer")
	s.seedUser(200, "producer")
	productID := s.seedProduct(100, 1000, 5, false)

	newPrice := int64(1200)
	err := s.CatalogService.Update(s.Ctx, productID, 200, &domain.UpdateProductInput{Price: &newPrice})
	s.Require().ErrorIs(err, domain.ErrProductNotFound)

	s.Require().NoError(s.CatalogService.Update(s.Ctx, productID, 100, &domain.UpdateProductInput{Price: &newPrice}))

	product, err := s.CatalogService.FindByID(s.Ctx, productID)
	s.Require().NoError(err)
	s.Require().Equal(int64(1200), product.Price)
}

func (s *IntegrationTestSuite) TestCatalog_ImageInvariant() {
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 5, false)

	// Two primaries violate the image invariant.
	err := s.CatalogService.SetImages(s.Ctx, productID, 100, []domain.ProductImage{
		{URL: "https://img.example/1.jpg", IsPrimary: true},
		{URL: "https://img.example/2.jpg", IsPrimary: true},
	})
	s.Require().ErrorIs(err, domain.ErrInvalidImageSet)

	s.Require().NoError(s.CatalogService.SetImages(s.Ctx, productID, 100, []domain.ProductImage{
		{URL: "https://img.example/1.jpg", Position: 0, IsPrimary: true},
		{URL: "https://img.example/2.jpg", Position: 1},
	}))

	product, err := s.CatalogService.FindByID(s.Ctx, productID)
	s.Require().NoError(err)
	s.Require().Len(product.Images, 2)
	s.Require().True(product.Images[0].IsPrimary)
}

func (s *IntegrationTestSuite) TestCatalog_SearchAndPagination() {
	s.seedUser(100, "producer")

	for i := 0; i < 3; i++ {
		s.seedProduct(100, 1000, 5, false)
	}

	_, total, err := s.CatalogService.List(s.Ctx, 2, 0, "")
	s.Require().NoError(err)
	s.Require().Equal(int64(3), total)

	products, _, err := s.CatalogService.List(s.Ctx, 2, 0, "")
	s.Require().NoError(err)
	s.Require().Len(products, 2)

	products, total, err = s.CatalogService.List(s.Ctx, 20, 0, "Honey")
	s.Require().NoError(err)
	s.Require().Equal(int64(3), total)
	s.Require().Len(products, 3)

	_, total, err = s.CatalogService.List(s.Ctx, 20, 0, "nonexistent")
	s.Require().NoError(err)
	s.Require().Zero(total)
}
