package models

// Category is one of the five fixed exam sections.
type Category string

const (
	CommonSense  Category = "常识判断"
	Logic        Category = "判断推理"
	Language     Category = "言语理解"
	Quantity     Category = "数量关系"
	DataAnalysis Category = "资料分析"
)

// Categories lists every category in display order.
var Categories = []Category{CommonSense, Logic, Language, Quantity, DataAnalysis}

// SubCategories is the static category to sub-category table. Sub-category
// values are free text constrained to this map.
var SubCategories = map[Category][]string{
	CommonSense: {
		"政治常识", "法律常识", "经济常识", "人文历史", "科技常识", "地理国情", "管理公文",
	},
	Logic: {
		"图形推理", "定义判断", "类比推理", "逻辑判断", "事件排序",
	},
	Language: {
		"逻辑填空", "中心理解", "细节判断", "语句表达", "篇章阅读",
	},
	Quantity: {
		"数字推理", "数学运算", "工程问题", "行程问题", "经济利润", "几何问题", "排列组合",
		"最值问题", "和差倍比问题", "概率问题", "不定方程问题", "统筹规划问题", "分段计算问题", "数列问题",
	},
	DataAnalysis: {
		"文字材料", "表格材料", "图形材料", "综合材料",
	},
}

// ValidCategory reports whether c is one of the five fixed categories.
func ValidCategory(c Category) bool {
	_, ok := SubCategories[c]
	return ok
}

// ValidSubCategory reports whether sub belongs to the category's table.
// An empty sub-category is always acceptable.
func ValidSubCategory(c Category, sub string) bool {
	if sub == "" {
		return true
	}
	for _, s := range SubCategories[c] {
		if s == sub {
			return true
		}
	}
	return false
}
