package i18n

// Keys are the English text; values are the Chinese translations.
var zhMessages = map[string]string{
	"Document OCR": "文档识别",
	"Upload a PDF or image to convert it to Markdown.": "上传 PDF 或图片，转换为 Markdown。",
	"Choose file":            "选择文件",
	"Process document":       "识别文档",
	"New document":           "新文档",
	"Result":                 "识别结果",
	"Contents":               "目录",
	"Download Markdown":      "下载 Markdown",
	"Download both (zip)":    "打包下载（zip）",
	"Download Word":          "下载 Word",
	"Tokens remaining: %d":   "剩余次数：%d",
	"Free: %d · Paid: %d":    "免费：%d · 付费：%d",
	"Balance unavailable":    "余额暂不可用",
	"Buy tokens":             "购买次数",
	"Pricing":                "价格",
	"%d documents":           "%d 次识别",
	"Buy":                    "购买",
	"No products available.": "暂无可购买的套餐。",
	"You have no tokens left. Buy more to continue.": "次数已用完，请购买后继续使用。",
	"Payment successful":                             "支付成功",
	"%d tokens have been added to your balance.":     "已为您增加 %d 次识别。",
	"Payment could not be confirmed.":                "无法确认支付结果。",
	"Back to home":                                   "返回首页",
	"Sign in":                                        "登录",
	"Sign out":                                       "退出登录",
	"Phone number":                                   "手机号",
	"Verification code":                              "验证码",
	"Send code":                                      "发送验证码",
	"Code sent.":                                     "验证码已发送。",
	"Signed in as %s":                                "已登录：%s",
	"Using this device anonymously":                  "当前以设备身份使用",
	"Please enter a valid phone number":              "请输入有效的手机号",
	"Please enter the verification code":             "请输入验证码",
	"Network error, please try again":                "网络错误，请重试",
	"An error occurred":                              "发生错误",
	"Unsupported file type":                          "不支持的文件类型",
	"The file is empty":                              "文件为空",
	"Too many requests, please slow down":            "请求过于频繁，请稍后再试",
}
