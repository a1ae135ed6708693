package types

// 耦合参数名称（与采样框架约定的键名）
const (
	LambdaSterics         = "lambda_sterics"        // 范德华耦合系数
	LambdaElectrostatics  = "lambda_electrostatics" // 静电耦合系数
	DefaultScheduleSteps  = 25                      // 每个阶段的离散步数
	DefaultSoftcoreAlpha  = 0.5                     // 软核参数 alpha
	DefaultCutoff         = 0.9                     // 非键截断(nm)
	DefaultEngineCapacity = 1                       // 参考引擎可同时存在的上下文数量
	DefaultLogFormat      = "text"                  // 日志格式
	DefaultOutputDir      = "."                     // 输出目录
)

// 默认参数常量定义
var (
	Tolerance          = 0.90  // 最小化收敛容差(kJ/mol/nm)
	MaxSteps           = 200   // 最小化最大步数
	Temperature        = 300.0 // 目标温度(K)
	Friction           = 90.0  // 摩擦系数(1/ps)
	TimeStep           = 1.0   // 积分步长(fs)
	NIterations        = 10    // 动力学监测块数量
	NStepsPerIteration = 50    // 每块动力学步数
)
