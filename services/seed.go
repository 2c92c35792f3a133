package services

import (
	"context"
	"errors"
	"log/slog"

	"cafe-order/models"
	"cafe-order/store"
)

var sampleMenu = []MenuItemInput{
	{Name: "Kopi Hitam", Category: models.CategoryDrink, Price: 10000, ImageURL: "https://images.unsplash.com/photo-1509042239860-f550ce710b93?w=400", Description: "Kopi hitam tradisional pilihan terbaik"},
	{Name: "Kopi Susu", Category: models.CategoryDrink, Price: 12000, ImageURL: "https://images.unsplash.com/photo-1461023058943-07fcbe16d735?w=400", Description: "Kopi susu creamy dan lezat"},
	{Name: "Es Teh Manis", Category: models.CategoryDrink, Price: 5000, ImageURL: "https://images.unsplash.com/photo-1556679343-c7306c1976bc?w=400", Description: "Teh manis segar dengan es"},
	{Name: "Nasi Goreng", Category: models.CategoryFood, Price: 15000, ImageURL: "https://images.unsplash.com/photo-1603133872878-684f208fb84b?w=400", Description: "Nasi goreng spesial dengan telur"},
	{Name: "Mie Goreng", Category: models.CategoryFood, Price: 13000, ImageURL: "https://images.unsplash.com/photo-1585032226651-759b368d7246?w=400", Description: "Mie goreng pedas gurih"},
	{Name: "Pisang Goreng", Category: models.CategoryFood, Price: 8000, ImageURL: "https://images.unsplash.com/photo-1587132137056-bfbf0166836e?w=400", Description: "Pisang goreng crispy"},
}

// EnsureDefaultAdmin creates the bootstrap admin when that username is free.
func EnsureDefaultAdmin(ctx context.Context, auth *AuthService, admins store.AdminStore, username, password string, log *slog.Logger) error {
	_, err := admins.GetAdminByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, err := auth.CreateAdmin(ctx, username, password); err != nil {
		return err
	}
	log.Info("default admin user created", "username", username)
	return nil
}

// SeedMenu fills an empty catalog with the house menu.
func SeedMenu(ctx context.Context, menu *MenuService, items store.MenuStore, log *slog.Logger) error {
	n, err := items.CountMenuItems(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, in := range sampleMenu {
		if _, err := menu.Create(ctx, in); err != nil {
			return err
		}
	}
	log.Info("sample menu items created", "count", len(sampleMenu))
	return nil
}
