package domain

// Tables in migration order, categories before the products referencing them
var Tables = []interface{}{
	&Category{},
	&Product{},
	&CatalogLog{},
}
