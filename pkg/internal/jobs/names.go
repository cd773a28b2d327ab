package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobOrphanScan = "maintenance.orphan_scan"
)

// DefaultCronOrphanScan 未配置时每天 03:00 (UTC) 扫描一次.
const DefaultCronOrphanScan = "0 3 * * *"
