package types

// MissingAsset 资产地址为空的记录.
type MissingAsset struct {
	CreativeID uint     `json:"creativeId"`
	Slots      []string `json:"slots"`
}

// OrphanReport 孤儿对象扫描结果，只报告不删除.
type OrphanReport struct {
	Prefixes      []string       `json:"prefixes"`
	ScannedKeys   int            `json:"scannedKeys"`
	OrphanKeys    []string       `json:"orphanKeys"`
	MissingAssets []MissingAsset `json:"missingAssets"`
}
