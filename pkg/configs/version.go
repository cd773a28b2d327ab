package configs

// AppVersion 应用版本号，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"

// AppName 应用名称.
const AppName = "creativevault"
