package widget

// ListView 接收列表区域的完整标记。
type ListView interface {
	SetHTML(markup string)
}

// LoadingIndicator 显示或隐藏加载状态。
type LoadingIndicator interface {
	SetLoading(on bool)
}

// ErrorRegion 显示或清除错误文字。
type ErrorRegion interface {
	ShowError(msg string)
	Clear()
}

// Input 为值变化时回调的输入控件（搜索框、下拉框）。
type Input interface {
	OnChange(fn func(value string))
}

// Trigger 为点击类控件（"加载更多"）。
type Trigger interface {
	OnTrigger(fn func())
}

// Visibility 为可选能力：实现它的 LoadMore 控件会随剩余条目显示或隐藏。
type Visibility interface {
	SetVisible(on bool)
}

// Container 是宿主页面交给控制器的句柄集合。
// 任一字段为 nil 时对应功能静默失效，不会报错。
type Container struct {
	List     ListView
	Loading  LoadingIndicator
	Errors   ErrorRegion
	Sort     Input
	Category Input
	Search   Input
	LoadMore Trigger
}
