package analytics

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ ExecutionDataCollector = new(LogFileDataCollector)

// LogFileDataCollector appends one json line per node outcome to a
// local file.
type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (lc *LogFileDataCollector) RecordNodeSuccess(workflowId string, executionId string, nodeId string, nodeType string) {
	lc.logger.Info("success", zap.String("workflowId", workflowId), zap.String("executionId", executionId), zap.String("nodeId", nodeId), zap.String("nodeType", nodeType))
}

func (lc *LogFileDataCollector) RecordNodeFailure(workflowId string, executionId string, nodeId string, nodeType string, reason string) {
	lc.logger.Info("failure", zap.String("workflowId", workflowId), zap.String("executionId", executionId), zap.String("nodeId", nodeId), zap.String("nodeType", nodeType), zap.String("reason", reason))
}
