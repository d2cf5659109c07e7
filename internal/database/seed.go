package database

import "premium-homes/internal/models"

// SampleProperties is written to an empty file database on first start.
func SampleProperties() []models.Property {
	return []models.Property{
		{
			ID:              1,
			Title:           "Luxury Apartment in City Center",
			Location:        "Tirana, Albania",
			Address:         "Blloku, Tirana",
			Price:           165000,
			Currency:        "EUR",
			Area:            88,
			Bedrooms:        2,
			Bathrooms:       1,
			PropertyType:    models.PropertyTypeApartment,
			TransactionType: models.TransactionSale,
			Images: models.StringList{
				"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=800",
				"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688?w=800",
			},
			Description: "Beautiful modern apartment in the heart of Tirana",
			Featured:    true,
		},
		{
			ID:              2,
			Title:           "Modern Villa with Sea View",
			Location:        "Vlorë, Albania",
			Address:         "Lungomare, Vlorë",
			Price:           450,
			Currency:        "EUR",
			Area:            100,
			Bedrooms:        2,
			Bathrooms:       2,
			PropertyType:    models.PropertyTypeApartment,
			TransactionType: models.TransactionRent,
			Images: models.StringList{
				"https://images.unsplash.com/photo-1600596542815-ffad4c1539a9?w=800",
			},
			Description: "Stunning apartment with panoramic sea views",
			Featured:    true,
		},
	}
}
