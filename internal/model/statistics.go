package model

import "time"

// DashboardStats aggregates the counters shown on the dashboard
type DashboardStats struct {
	TotalProducts      int64        `json:"total_products"`
	CheckedInProducts  int64        `json:"checked_in_products"`
	CheckedOutProducts int64        `json:"checked_out_products"`
	UnsetProducts      int64        `json:"unset_products"`
	TotalUsers         int64        `json:"total_users"`
	TotalWarehouses    int64        `json:"total_warehouses"`
	TotalDevices       int64        `json:"total_devices"`
	PerWarehouse       []GroupCount `json:"per_warehouse"`
	RecentCheckIns     int64        `json:"recent_check_ins"`
	RecentCheckOuts    int64        `json:"recent_check_outs"`
	Since              time.Time    `json:"since"`
}

// GroupCount is a labelled counter
type GroupCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}
