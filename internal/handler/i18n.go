package handler

import (
	"github.com/habitlog/internal/locale"
	"github.com/habitlog/internal/recurrence"
)

var fixedMessageMap = map[string]string{
	"习惯不存在":      "Habit not found",
	"频率规则无效":     "Invalid recurrence rule",
	"习惯名称不能为空":   "Habit name is required",
	"习惯已存在":      "Habit already exists",
	"无效的日期":      "Invalid date",
	"请求参数不合法":    "Invalid request payload",
	"获取习惯列表失败":   "Failed to list habits",
	"保存习惯失败":     "Failed to save habit",
	"删除习惯失败":     "Failed to delete habit",
	"该周期已完成，无法跳过": "Period already completed, cannot skip",
	"该习惯没有数值目标":  "Habit has no numeric target",
	"保存打卡记录失败":   "Failed to save record",
	"获取打卡状态失败":   "Failed to load record status",
	"获取到期列表失败":   "Failed to load agenda",
	"无效的节假日":     "Invalid holiday",
	"获取节假日失败":    "Failed to list holidays",
	"保存节假日失败":    "Failed to save holiday",
	"用户名或密码错误":   "Invalid username or password",
	"会话保存失败":     "Failed to save session",
	"请先登录":       "Login required",
}

var groupLabels = map[recurrence.Group][2]string{
	recurrence.GroupDaily:   {"Daily", "每日"},
	recurrence.GroupWeekly:  {"Weekly", "每周"},
	recurrence.GroupMonthly: {"Monthly", "每月"},
	recurrence.GroupYearly:  {"Yearly", "每年"},
}

func localizeMessage(language, message string) string {
	if message == "" {
		return message
	}
	if locale.NormalizeLanguage(language) != locale.LanguageEnglish {
		return message
	}
	if mapped, ok := fixedMessageMap[message]; ok {
		return mapped
	}
	return message
}

func groupLabel(language string, group recurrence.Group) string {
	labels, ok := groupLabels[group]
	if !ok {
		return string(group)
	}
	return locale.Pick(language, labels[0], labels[1])
}
