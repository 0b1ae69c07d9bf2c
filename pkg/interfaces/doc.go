// Package interfaces 定义 go-asyncevent 的公共接口
//
// 本包只包含类型与接口定义，不包含实现：
//   - dispatcher.go     - Signal / Callback 类型、Dispatcher 接口与错误定义
//
// 实现位于 internal/core/dispatcher，通过 Fx 模块以 interfaces.Dispatcher 提供。
//
// # 依赖规则
//
// interfaces 包不依赖任何 internal 包，内部实现依赖本包：
//
//	pkg/interfaces ← internal/core/registry
//	               ← internal/core/queue
//	               ← internal/core/dispatcher
//	               ← asyncevent（根包）
package interfaces
