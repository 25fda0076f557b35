// Package model はドメインモデルを定義する。
package model

import "time"

// Product はユーザーが登録した製品を表す。
// 1つの製品に複数の保証が紐付くことがある。
type Product struct {
	ID           string
	UserID       string
	Name         string
	Category     string
	Manufacturer string
	ModelNumber  string
	SerialNumber string
	PurchaseDate *time.Time
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ServiceInfo は製品に対する修理・点検などのサービス記録を表す。
// 管理者がCRUD操作を行う。
type ServiceInfo struct {
	ID              string
	ProductID       string
	ServiceProvider string
	Description     string
	ServiceDate     time.Time
	Cost            int64 // 最小通貨単位（円）
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
